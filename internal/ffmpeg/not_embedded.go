//go:build !ffmpeg_embedded

package ffmpeg

import "io"

// builds without the tag carry no archive and always download
func openEmbeddedAsset(string) (io.ReadCloser, bool, error) {
	return nil, false, nil
}
