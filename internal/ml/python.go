package ml

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

const probeScript = "import sys, joblib, pandas; print('Python', sys.version)"

// FindPython picks the interpreter for the inference worker. An active
// virtualenv wins, then a venv or .venv in the working directory, then python3
// and python on PATH. Interpreters that can import joblib and pandas are
// preferred; otherwise the first one found is returned so the worker itself
// reports the missing module.
func FindPython() (string, error) {
	var found []string
	for _, candidate := range pythonCandidates() {
		path, err := exec.LookPath(candidate)
		if err != nil {
			continue
		}
		if hasModelDeps(path) {
			log.Info().Str("python_path", path).Msg("using Python")
			return path, nil
		}
		found = append(found, path)
	}

	if len(found) > 0 {
		log.Warn().Str("python_path", found[0]).Msg("Python found but joblib or pandas is not importable")
		return found[0], nil
	}
	return "", errors.New("no Python 3 interpreter found; install Python 3 with joblib, pandas and scikit-learn or set PYTHON_PATH")
}

func pythonCandidates() []string {
	var out []string
	if venv := os.Getenv("VIRTUAL_ENV"); venv != "" {
		out = append(out, filepath.Join(venv, "bin", "python3"))
	}
	for _, dir := range []string{".venv", "venv"} {
		out = append(out, filepath.Join(dir, "bin", "python3"))
	}
	return append(out, "python3", "python")
}

func hasModelDeps(python string) bool {
	output, err := exec.Command(python, "-c", probeScript).Output()
	return err == nil && strings.HasPrefix(string(output), "Python 3")
}
