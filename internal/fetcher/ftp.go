package fetcher

import (
	"context"
	"io"
	"net"
	"net/url"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/project1899/internal/resilience"
)

// FTPOptions configures the FTP fetcher.
type FTPOptions struct {
	Timeout    time.Duration
	MaxRetries int
}

// FTPFetcher downloads files from anonymous FTP mirrors.
type FTPFetcher struct {
	opts FTPOptions
}

// NewFTPFetcher creates a new FTPFetcher with the given options.
func NewFTPFetcher(opts FTPOptions) *FTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	return &FTPFetcher{opts: opts}
}

// ftpTarget is a parsed ftp:// location.
type ftpTarget struct {
	addr string // host:port
	path string
	user string
	pass string
}

// parseFTPURL splits an ftp:// URL. Missing ports default to 21 and missing
// credentials to an anonymous login.
func parseFTPURL(rawURL string) (ftpTarget, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ftpTarget{}, eris.Wrap(err, "ftp: parse url")
	}
	if u.Scheme != "ftp" {
		return ftpTarget{}, eris.Errorf("ftp: unsupported scheme %q", u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		return ftpTarget{}, eris.Errorf("ftp: no file path in %s", u.Redacted())
	}

	t := ftpTarget{addr: u.Host, path: u.Path, user: "anonymous", pass: "anonymous@"}
	if u.Port() == "" {
		t.addr = net.JoinHostPort(u.Hostname(), "21")
	}
	if u.User != nil {
		t.user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			t.pass = p
		}
	}
	return t, nil
}

// ftpConnReader closes the FTP response and the server connection together.
type ftpConnReader struct {
	resp *ftp.Response
	conn *ftp.ServerConn
}

func (r *ftpConnReader) Read(p []byte) (int, error) {
	return r.resp.Read(p)
}

func (r *ftpConnReader) Close() error {
	err := r.resp.Close()
	if qerr := r.conn.Quit(); err == nil && qerr != nil {
		err = qerr
	}
	return eris.Wrap(err, "ftp: close transfer")
}

// Download opens a RETR transfer of ftpURL. Connecting, logging in and
// starting the transfer retry on transient failures; the transfer itself
// does not. The caller must close the returned reader.
func (f *FTPFetcher) Download(ctx context.Context, ftpURL string) (io.ReadCloser, error) {
	t, err := parseFTPURL(ftpURL)
	if err != nil {
		return nil, err
	}

	policy := resilience.DefaultPolicy().WithAttempts(f.opts.MaxRetries)
	return resilience.DoVal(ctx, policy, "ftp retr "+t.addr+t.path, func(ctx context.Context) (io.ReadCloser, error) {
		zap.L().Debug("ftp: connecting", zap.String("addr", t.addr), zap.String("path", t.path))

		conn, err := ftp.Dial(t.addr, ftp.DialWithTimeout(f.opts.Timeout), ftp.DialWithContext(ctx))
		if err != nil {
			return nil, eris.Wrapf(err, "ftp: dial %s", t.addr)
		}
		if err := conn.Login(t.user, t.pass); err != nil {
			conn.Quit() //nolint:errcheck
			return nil, eris.Wrapf(err, "ftp: login as %s", t.user)
		}
		resp, err := conn.Retr(t.path)
		if err != nil {
			conn.Quit() //nolint:errcheck
			return nil, eris.Wrapf(err, "ftp: retr %s", t.path)
		}
		return &ftpConnReader{resp: resp, conn: conn}, nil
	})
}

// DownloadToFile downloads the FTP URL to a local file. Returns bytes written.
func (f *FTPFetcher) DownloadToFile(ctx context.Context, ftpURL string, path string) (int64, error) {
	rc, err := f.Download(ctx, ftpURL)
	if err != nil {
		return 0, err
	}
	defer rc.Close() //nolint:errcheck

	return writeFile(path, rc)
}
