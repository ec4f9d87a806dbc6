package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/textproto"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"

	"github.com/wearlab/sensorsync/internal/resilience"
)

// FTPOptions configures the FTP backend, used where sensor base stations
// push recordings to an on-prem FTP drop.
type FTPOptions struct {
	Host     string // host or host:port; port defaults to 21
	User     string // empty means anonymous
	Password string
	Timeout  time.Duration
}

type ftpStore struct {
	host     string
	user     string
	password string
	timeout  time.Duration
	retry    resilience.RetryConfig
}

// NewFTP creates an FTP-backed store. Each operation dials a fresh
// connection and quits when done; FTP servers in the field drop idle
// control connections too aggressively to keep one open. Transient reply
// codes and network failures are retried with backoff.
func NewFTP(opts FTPOptions) (Store, error) {
	if opts.Host == "" {
		return nil, eris.New("blob: ftp host is required")
	}

	user, password := opts.User, opts.Password
	if user == "" {
		user, password = "anonymous", "anonymous@"
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &ftpStore{
		host:     hostWithPort(opts.Host),
		user:     user,
		password: password,
		timeout:  timeout,
		retry:    resilience.DefaultRetryConfig(),
	}, nil
}

// hostWithPort appends the default FTP port when the host has none.
func hostWithPort(host string) string {
	if _, _, err := net.SplitHostPort(host); err != nil {
		return net.JoinHostPort(host, "21")
	}
	return host
}

// retryCfg returns the transfer retry config, logging attempts under op.
func (s *ftpStore) retryCfg(op string) resilience.RetryConfig {
	cfg := s.retry
	cfg.OnRetry = resilience.RetryLogger("ftp", op)
	return cfg
}

func (s *ftpStore) connect(ctx context.Context) (*ftp.ServerConn, error) {
	conn, err := ftp.Dial(s.host, ftp.DialWithTimeout(s.timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, eris.Wrapf(err, "blob: ftp dial %s", s.host)
	}
	if err := conn.Login(s.user, s.password); err != nil {
		conn.Quit()
		return nil, eris.Wrap(err, "blob: ftp login")
	}
	return conn, nil
}

func (s *ftpStore) List(ctx context.Context, prefix string) ([]string, error) {
	return resilience.DoVal(ctx, s.retryCfg("list"), func(ctx context.Context) ([]string, error) {
		conn, err := s.connect(ctx)
		if err != nil {
			return nil, err
		}
		defer conn.Quit()

		root := strings.TrimSuffix(prefix, "/")
		var names []string
		w := conn.Walk(root)
		for w.Next() {
			if w.Stat().Type != ftp.EntryTypeFile {
				continue
			}
			names = append(names, w.Path())
		}
		if err := w.Err(); err != nil {
			// A prefix that does not exist yet is an empty listing, not a fault.
			if notFound(err) {
				return nil, nil
			}
			return nil, eris.Wrapf(err, "blob: ftp list %q", prefix)
		}
		sort.Strings(names)
		return names, nil
	})
}

func (s *ftpStore) Download(ctx context.Context, name string) ([]byte, error) {
	return resilience.DoVal(ctx, s.retryCfg("download"), func(ctx context.Context) ([]byte, error) {
		conn, err := s.connect(ctx)
		if err != nil {
			return nil, err
		}
		defer conn.Quit()

		resp, err := conn.Retr(name)
		if err != nil {
			return nil, eris.Wrapf(err, "blob: ftp retrieve %q", name)
		}
		defer resp.Close()

		content, err := io.ReadAll(resp)
		if err != nil {
			return nil, eris.Wrapf(err, "blob: ftp read %q", name)
		}
		return content, nil
	})
}

func (s *ftpStore) Upload(ctx context.Context, name string, content []byte, contentType string) error {
	return resilience.Do(ctx, s.retryCfg("upload"), func(ctx context.Context) error {
		conn, err := s.connect(ctx)
		if err != nil {
			return err
		}
		defer conn.Quit()

		// Parent directories must exist before Stor; create them level by
		// level, tolerating the ones already there.
		dir := path.Dir(name)
		if dir != "." && dir != "/" {
			partial := ""
			for _, part := range strings.Split(dir, "/") {
				if part == "" {
					continue
				}
				partial = path.Join(partial, part)
				if err := conn.MakeDir(partial); err != nil && !alreadyExists(err) {
					return eris.Wrapf(err, "blob: ftp mkdir %q", partial)
				}
			}
		}

		if err := conn.Stor(name, bytes.NewReader(content)); err != nil {
			return eris.Wrapf(err, "blob: ftp store %q", name)
		}
		return nil
	})
}

func (s *ftpStore) Close() error { return nil }

// notFound reports a 550 file-unavailable reply.
func notFound(err error) bool {
	var tpErr *textproto.Error
	return errors.As(err, &tpErr) && tpErr.Code == ftp.StatusFileUnavailable
}

// alreadyExists reports the replies servers give for MKD on an existing
// directory. 550 is the common one; some servers answer 553.
func alreadyExists(err error) bool {
	var tpErr *textproto.Error
	return errors.As(err, &tpErr) &&
		(tpErr.Code == ftp.StatusFileUnavailable || tpErr.Code == ftp.StatusBadFileName)
}
