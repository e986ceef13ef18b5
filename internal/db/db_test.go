package db

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/project1899/internal/resilience"
)

func TestCopyFrom_EmptyRows(t *testing.T) {
	n, err := CopyFrom(context.TODO(), nil, "corpus.chunks", []string{"a", "b"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFrom_SchemaQualified(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"corpus", "chunks"}, []string{"parent_id", "chunk_index", "text"}).WillReturnResult(2)

	rows := [][]any{{"a", 0, "x"}, {"a", 1, "y"}}
	n, err := CopyFrom(context.Background(), mock, "corpus.chunks", []string{"parent_id", "chunk_index", "text"}, rows)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"chunks"}, []string{"a"}).WillReturnError(fmt.Errorf("permission denied"))

	_, err = CopyFrom(context.Background(), mock, "chunks", []string{"a"}, [][]any{{1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO chunks")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsert_Validation(t *testing.T) {
	n, err := BulkUpsert(context.TODO(), nil, UpsertConfig{Table: "corpus.chunks", Columns: []string{"id"}, ConflictKeys: []string{"id"}}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)

	_, err = BulkUpsert(context.TODO(), nil, UpsertConfig{Table: "corpus.chunks", ConflictKeys: []string{"id"}}, [][]any{{1}})
	assert.ErrorContains(t, err, "no columns specified")

	_, err = BulkUpsert(context.TODO(), nil, UpsertConfig{Table: "corpus.chunks", Columns: []string{"id"}}, [][]any{{1}})
	assert.ErrorContains(t, err, "no conflict keys specified")
}

func TestBulkUpsert_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cols := []string{"parent_id", "chunk_index", "text"}
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TEMP TABLE "_tmp_upsert_corpus_chunks" (LIKE "corpus"."chunks" INCLUDING DEFAULTS) ON COMMIT DROP`)).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_corpus_chunks"}, cols).WillReturnResult(2)
	mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT ("parent_id", "chunk_index") DO UPDATE SET "text" = EXCLUDED."text"`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	n, err := BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:        "corpus.chunks",
		Columns:      cols,
		ConflictKeys: []string{"parent_id", "chunk_index"},
	}, [][]any{{"a", 0, "x"}, {"a", 1, "y"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertSQL_DoNothing(t *testing.T) {
	sql := upsertSQL("chunks", "_tmp", []string{"id"}, []string{"id"}, nil)
	assert.Equal(t, `INSERT INTO "chunks" ("id") SELECT "id" FROM "_tmp" ON CONFLICT ("id") DO NOTHING`, sql)
}

func TestSanitizeTable(t *testing.T) {
	assert.Equal(t, `"simple"`, sanitizeTable("simple"))
	assert.Equal(t, `"corpus"."chunks"`, sanitizeTable("corpus.chunks"))
}

func TestQuoteAndJoin(t *testing.T) {
	assert.Equal(t, `"id", "name", "value"`, quoteAndJoin([]string{"id", "name", "value"}))
}

func TestConnect_Validation(t *testing.T) {
	_, err := Connect(context.Background(), "", resilience.DefaultPolicy())
	assert.ErrorContains(t, err, "database url is required")

	_, err = Connect(context.Background(), "://bad", resilience.DefaultPolicy())
	assert.Error(t, err)
}
