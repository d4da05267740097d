package trails

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const labelFileKey = "labelfile-path="

var (
	ErrNoLabelFilePath = errors.New("no labelfile-path in inference config")
	ErrNoLabels        = errors.New("label file has no labels")
)

// LoadLabels reads class labels, one per line. Blank lines are ignored, so line index of
// a label is not necessarily its class id: class id is the index among non-empty lines.
func LoadLabels(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't open label file '%s'", path)
	}
	defer file.Close()

	labels := []string{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		labels = append(labels, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "Can't read label file '%s'", path)
	}
	if len(labels) == 0 {
		return nil, errors.Wrapf(ErrNoLabels, "label file '%s'", path)
	}
	return labels, nil
}

// LabelFilePath extracts labelfile-path value from nvinfer-style config.
// Relative paths are resolved against directory of the config file.
func LabelFilePath(configPath string) (string, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return "", errors.Wrapf(err, "Can't open inference config '%s'", configPath)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, labelFileKey) {
			continue
		}
		value := strings.TrimSpace(strings.TrimPrefix(line, labelFileKey))
		if value == "" {
			return "", errors.Wrapf(ErrNoLabelFilePath, "empty value in '%s'", configPath)
		}
		if !filepath.IsAbs(value) {
			value = filepath.Join(filepath.Dir(configPath), value)
		}
		return value, nil
	}
	if err := scanner.Err(); err != nil {
		return "", errors.Wrapf(err, "Can't read inference config '%s'", configPath)
	}
	return "", errors.Wrapf(ErrNoLabelFilePath, "config '%s'", configPath)
}

// LoadLabelsFromInferConfig loads labels referenced by labelfile-path of nvinfer-style config
func LoadLabelsFromInferConfig(configPath string) ([]string, error) {
	labelPath, err := LabelFilePath(configPath)
	if err != nil {
		return nil, err
	}
	return LoadLabels(labelPath)
}
