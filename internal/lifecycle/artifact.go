package lifecycle

import "os"

func readArtifact(path string) ([]byte, error) {
	return os.ReadFile(path)
}
