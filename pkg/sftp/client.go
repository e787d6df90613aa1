package sftp

import (
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/wonny/fossbatch/pkg/config"
)

// Account selects which partner login a session uses
type Account int

const (
	// SendAccount uploads outbound files
	SendAccount Account = iota
	// ReceiveAccount reads partner uploads
	ReceiveAccount
)

func (a Account) String() string {
	if a == ReceiveAccount {
		return "receive"
	}
	return "send"
}

// Client is one SFTP session against the partner server
// ⭐ SSOT: 파트너 SFTP 접속은 여기서만
type Client struct {
	ssh  *ssh.Client
	sftp *sftp.Client
}

// Dial opens an SFTP session with the given account
func Dial(cfg config.SFTPConfig, account Account) (*Client, error) {
	user, password := cfg.User, cfg.Password
	if account == ReceiveAccount {
		user, password = cfg.ReceiveUser, cfg.ReceivePassword
	}

	hostKey := ssh.InsecureIgnoreHostKey()
	if cfg.KnownHosts != "" {
		cb, err := knownhosts.New(cfg.KnownHosts)
		if err != nil {
			return nil, fmt.Errorf("load known_hosts: %w", err)
		}
		hostKey = cb
	}

	sshCfg := &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.Password(password)},
		HostKeyCallback: hostKey,
		Timeout:         cfg.Timeout,
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	conn, err := ssh.Dial("tcp", addr, sshCfg)
	if err != nil {
		return nil, fmt.Errorf("ssh dial %s: %w", addr, err)
	}

	client, err := sftp.NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open sftp session: %w", err)
	}

	return &Client{ssh: conn, sftp: client}, nil
}

// ReadMatching returns the content of every file in dir whose name contains
// substr, keyed by the file name stem (the part before the first dot).
func (c *Client) ReadMatching(dir, substr string) (map[string]string, error) {
	entries, err := c.sftp.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.Contains(e.Name(), substr) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	contents := make(map[string]string, len(names))
	for _, name := range names {
		stem := Stem(name)
		if _, seen := contents[stem]; seen {
			// first match wins
			continue
		}
		data, err := c.read(path.Join(dir, name))
		if err != nil {
			return nil, err
		}
		contents[stem] = data
	}
	return contents, nil
}

func (c *Client) read(remotePath string) (string, error) {
	f, err := c.sftp.Open(remotePath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", remotePath, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", remotePath, err)
	}
	return string(data), nil
}

// Put uploads localPath to remotePath, replacing any existing file
func (c *Client) Put(localPath, remotePath string) error {
	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open local file: %w", err)
	}
	defer src.Close()

	dst, err := c.sftp.OpenFile(remotePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return fmt.Errorf("create %s: %w", remotePath, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("upload %s: %w", remotePath, err)
	}
	return dst.Close()
}

// Close ends the session
func (c *Client) Close() error {
	var firstErr error
	if c.sftp != nil {
		firstErr = c.sftp.Close()
	}
	if c.ssh != nil {
		if err := c.ssh.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Stem returns the file name up to the first dot ("fnd_list.20241210" -> "fnd_list")
func Stem(name string) string {
	if i := strings.Index(name, "."); i >= 0 {
		return name[:i]
	}
	return name
}
