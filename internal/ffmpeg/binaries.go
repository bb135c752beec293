// Package ffmpeg locates the ffmpeg and ffprobe binaries used for probing
// and burning captions, installing a pinned release into the user cache
// when neither the environment nor PATH provides them.
package ffmpeg

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

const (
	releaseVersion = "6.1"
	releaseBaseURL = "https://github.com/ffbinaries/ffbinaries-prebuilt/releases/download"

	// explicit binary locations, checked before PATH
	FFmpegEnv  = "SUBSCRUB_FFMPEG_PATH"
	FFprobeEnv = "SUBSCRUB_FFPROBE_PATH"
)

type BinaryPaths struct {
	FFmpeg  string
	FFprobe string
}

// resolver finds or installs the binaries. Its hooks are replaced in tests.
type resolver struct {
	getenv   func(string) string
	lookPath func(string) (string, error)
	cacheDir func() (string, error)
	fetch    func(url string) (io.ReadCloser, error)
	goos     string
	goarch   string
}

func defaultResolver() *resolver {
	return &resolver{
		getenv:   os.Getenv,
		lookPath: exec.LookPath,
		cacheDir: os.UserCacheDir,
		fetch:    download,
		goos:     runtime.GOOS,
		goarch:   runtime.GOARCH,
	}
}

var (
	ensureOnce  sync.Once
	ensurePaths BinaryPaths
	ensureErr   error
)

// Ensure resolves both binaries once per process.
func Ensure() (BinaryPaths, error) {
	ensureOnce.Do(func() {
		ensurePaths, ensureErr = defaultResolver().resolve()
	})
	return ensurePaths, ensureErr
}

func FFmpegPath() (string, error) {
	paths, err := Ensure()
	return paths.FFmpeg, err
}

func FFprobePath() (string, error) {
	paths, err := Ensure()
	return paths.FFprobe, err
}

// resolve prefers the environment, then PATH, then the cached install.
func (r *resolver) resolve() (BinaryPaths, error) {
	paths := BinaryPaths{
		FFmpeg:  r.getenv(FFmpegEnv),
		FFprobe: r.getenv(FFprobeEnv),
	}
	if paths.FFmpeg == "" {
		if found, err := r.lookPath("ffmpeg"); err == nil {
			paths.FFmpeg = found
		}
	}
	if paths.FFprobe == "" {
		if found, err := r.lookPath("ffprobe"); err == nil {
			paths.FFprobe = found
		}
	}
	if paths.FFmpeg != "" && paths.FFprobe != "" {
		return paths, nil
	}

	asset, err := assetForPlatform(r.goos, r.goarch)
	if err != nil {
		return BinaryPaths{}, err
	}
	dir, err := r.installDir()
	if err != nil {
		return BinaryPaths{}, err
	}

	suffix := executableSuffix(r.goos)
	cached := BinaryPaths{
		FFmpeg:  filepath.Join(dir, "ffmpeg"+suffix),
		FFprobe: filepath.Join(dir, "ffprobe"+suffix),
	}
	if !cached.exist() {
		if err := r.install(asset, dir); err != nil {
			return BinaryPaths{}, err
		}
		if !cached.exist() {
			return BinaryPaths{}, errors.New("ffmpeg binaries not found after extraction")
		}
	}
	if r.goos != "windows" {
		for _, bin := range []string{cached.FFmpeg, cached.FFprobe} {
			if err := os.Chmod(bin, 0o755); err != nil {
				return BinaryPaths{}, fmt.Errorf("failed to make %s executable: %w", bin, err)
			}
		}
	}

	// an explicit or PATH binary still wins for the half that was found
	if paths.FFmpeg == "" {
		paths.FFmpeg = cached.FFmpeg
	}
	if paths.FFprobe == "" {
		paths.FFprobe = cached.FFprobe
	}
	return paths, nil
}

func (r *resolver) installDir() (string, error) {
	base, err := r.cacheDir()
	if err != nil || base == "" {
		base = os.TempDir()
	}
	dir := filepath.Join(base, "subscrub", "ffmpeg", releaseVersion, r.goos, r.goarch)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create ffmpeg cache dir: %w", err)
	}
	return dir, nil
}

// install unpacks the bundled archive when the build embeds one and
// downloads the release otherwise.
func (r *resolver) install(asset, dir string) error {
	archive, ok, err := openEmbeddedAsset(asset)
	if err != nil {
		return err
	}
	if !ok {
		url := fmt.Sprintf("%s/v%s/%s", releaseBaseURL, releaseVersion, asset)
		if archive, err = r.fetch(url); err != nil {
			return err
		}
	}
	defer func() { _ = archive.Close() }()

	if err := unpack(archive, dir, r.goos); err != nil {
		return fmt.Errorf("failed to extract %s: %w", asset, err)
	}
	return nil
}

func assetForPlatform(goos, goarch string) (string, error) {
	platforms := map[string]string{
		"linux/amd64":   "linux-64",
		"linux/arm64":   "linux-arm-64",
		"darwin/amd64":  "macos-64",
		"windows/amd64": "win-64",
	}
	name, ok := platforms[goos+"/"+goarch]
	if !ok {
		return "", fmt.Errorf("no bundled ffmpeg for %s/%s: install ffmpeg or set %s and %s",
			goos, goarch, FFmpegEnv, FFprobeEnv)
	}
	return "ffmpeg-" + releaseVersion + "-" + name + ".zip", nil
}

func download(url string) (io.ReadCloser, error) {
	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download ffmpeg: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("failed to download ffmpeg: unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

// unpack copies the ffmpeg and ffprobe entries of a zip stream into dir.
// zip needs random access, so the stream is spooled to a temp file first.
func unpack(archive io.Reader, dir, goos string) error {
	spool, err := os.CreateTemp("", "subscrub-ffmpeg-*.zip")
	if err != nil {
		return fmt.Errorf("create temp archive: %w", err)
	}
	defer func() {
		_ = spool.Close()
		_ = os.Remove(spool.Name())
	}()

	size, err := io.Copy(spool, archive)
	if err != nil {
		return fmt.Errorf("write archive: %w", err)
	}
	zr, err := zip.NewReader(spool, size)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}

	suffix := executableSuffix(goos)
	found := map[string]bool{}
	for _, file := range zr.File {
		name := strings.TrimSuffix(strings.ToLower(filepath.Base(file.Name)), ".exe")
		if name != "ffmpeg" && name != "ffprobe" {
			continue
		}
		if err := extractFile(file, filepath.Join(dir, name+suffix)); err != nil {
			return err
		}
		found[name] = true
	}
	if !found["ffmpeg"] || !found["ffprobe"] {
		return errors.New("archive is missing ffmpeg or ffprobe")
	}
	return nil
}

func extractFile(file *zip.File, dest string) error {
	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", file.Name, err)
	}
	defer func() { _ = src.Close() }()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return out.Close()
}

func (p BinaryPaths) exist() bool {
	return isFile(p.FFmpeg) && isFile(p.FFprobe)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}

func executableSuffix(goos string) string {
	if goos == "windows" {
		return ".exe"
	}
	return ""
}
