package mvtec

import (
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/husmen/anomalib/pkg/utils"
	"github.com/husmen/anomalib/pkg/utils/oss"
)

// Download fetches the dataset archive, extracts it under root and deletes
// the archive. A pre-existing category directory short-circuits the download
// with a warning. Failures propagate, there is no retry.
func Download(fs afero.Fs, root, category, rawURL string) error {
	exists, err := afero.DirExists(fs, filepath.Join(root, category))
	if err != nil {
		return err
	}
	if exists {
		log.Warn("dataset directory exists, skipping download")
		return nil
	}

	if err := fs.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("create dataset root %s: %w", root, err)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse dataset url %s: %w", rawURL, err)
	}
	archivePath := filepath.Join(root, path.Base(u.Path))

	log.Infof("downloading dataset from %s", u.Host)
	switch u.Scheme {
	case "ftp":
		err = fetchFTP(fs, u, archivePath)
	case "s3":
		err = fetchS3(fs, rawURL, archivePath)
	default:
		return fmt.Errorf("unsupported dataset url scheme: %s", u.Scheme)
	}
	if err != nil {
		return err
	}

	log.Info("extracting dataset archive")
	if err := utils.ExtractTarXz(fs, archivePath, root); err != nil {
		return err
	}

	log.Info("cleaning up the dataset archive")
	return fs.Remove(archivePath)
}

func fetchFTP(fs afero.Fs, u *url.URL, archivePath string) error {
	addr := u.Host
	if !strings.Contains(addr, ":") {
		addr += ":21"
	}

	conn, err := ftp.Dial(addr, ftp.DialWithTimeout(30*time.Second))
	if err != nil {
		return fmt.Errorf("dial ftp %s: %w", addr, err)
	}
	defer conn.Quit()

	user, pass := "anonymous", "anonymous"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	}
	if err := conn.Login(user, pass); err != nil {
		return fmt.Errorf("ftp login: %w", err)
	}

	resp, err := conn.Retr(strings.TrimPrefix(u.Path, "/"))
	if err != nil {
		return fmt.Errorf("ftp retrieve %s: %w", u.Path, err)
	}
	defer resp.Close()

	out, err := fs.Create(archivePath)
	if err != nil {
		return fmt.Errorf("create archive file %s: %w", archivePath, err)
	}
	defer out.Close()

	n, err := io.Copy(out, resp)
	if err != nil {
		return fmt.Errorf("write archive %s: %w", archivePath, err)
	}
	log.Infof("downloaded %d bytes to %s", n, archivePath)
	return nil
}

func fetchS3(fs afero.Fs, rawURL, archivePath string) error {
	out, err := fs.Create(archivePath)
	if err != nil {
		return fmt.Errorf("create archive file %s: %w", archivePath, err)
	}
	defer out.Close()

	client := oss.NewS3Base(oss.ConfigFromEnv())
	return client.Download(out, rawURL)
}
