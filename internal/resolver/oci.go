package resolver

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/go-containerregistry/pkg/crane"
	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
)

// fetchOCI pulls the single component layer from an oci:// reference,
// e.g. oci://example.com/fetch:latest. The image is expected to carry
// exactly one layer holding the compiled component binary.
func (r *Resolver) fetchOCI(ctx context.Context, uri string) ([]byte, error) {
	ref := strings.TrimPrefix(uri, "oci://")

	opts := []crane.Option{crane.WithContext(ctx)}
	if r.cfg.InsecureSkipVerify {
		opts = append(opts, crane.Insecure)
	}

	if _, err := name.ParseReference(ref); err != nil {
		return nil, fmt.Errorf("%w: parse oci reference %s: %v", ErrUnsupported, ref, err)
	}

	img, err := crane.Pull(ref, opts...)
	if err != nil {
		if isOCINotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		if isOCIUnauthorized(err) {
			return nil, fmt.Errorf("%w: %s", ErrUnauthorized, ref)
		}
		return nil, fmt.Errorf("%w: pull %s: %v", ErrTransport, ref, err)
	}

	layers, err := img.Layers()
	if err != nil {
		return nil, fmt.Errorf("%w: inspect layers of %s: %v", ErrTransport, ref, err)
	}
	if len(layers) != 1 {
		return nil, fmt.Errorf("%s: expected exactly one layer, found %d", ref, len(layers))
	}

	return readComponentLayer(layers[0], ref)
}

func readComponentLayer(layer v1.Layer, ref string) ([]byte, error) {
	rc, err := layer.Uncompressed()
	if err != nil {
		return nil, fmt.Errorf("%w: read layer of %s: %v", ErrTransport, ref, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxArtifactSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read layer body of %s: %v", ErrTransport, ref, err)
	}
	if len(data) > maxArtifactSize {
		return nil, fmt.Errorf("%s: component layer exceeds %d bytes", ref, maxArtifactSize)
	}
	return data, nil
}

func isOCINotFound(err error) bool {
	return strings.Contains(err.Error(), "MANIFEST_UNKNOWN") || strings.Contains(err.Error(), "NAME_UNKNOWN") || strings.Contains(err.Error(), "404")
}

func isOCIUnauthorized(err error) bool {
	return strings.Contains(err.Error(), "UNAUTHORIZED") || strings.Contains(err.Error(), "401") || strings.Contains(err.Error(), "403")
}
