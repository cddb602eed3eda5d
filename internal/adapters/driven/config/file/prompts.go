package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driven"
	"github.com/custodia-labs/bankdoc-rag/internal/logger"
)

var _ driven.PromptStore = (*PromptStore)(nil)

// DefaultAnswerPrompt is the built-in answer template.
const DefaultAnswerPrompt = driven.DefaultAnswerPrompt

// promptDef is a known prompt: its built-in text and the placeholders an
// edited copy must keep to be usable.
type promptDef struct {
	fallback     string
	placeholders []string
}

var knownPrompts = map[string]promptDef{
	driven.PromptAnswer: {fallback: DefaultAnswerPrompt, placeholders: driven.AnswerPlaceholders()},
}

const promptReadme = "# bankdoc prompts\n\n" +
	"`answer.txt` phrases answers from retrieved document excerpts.\n" +
	"`{context}` receives the excerpts and `{question}` the question.\n\n" +
	"Edits take effect on the next command. A template that loses a\n" +
	"placeholder is ignored and the built-in default is used instead.\n"

// PromptStore serves prompt templates from NAME.txt files in a directory
// the user can edit. The directory and default files are written on the
// first Load, never by the constructor.
type PromptStore struct {
	dir   string
	setup func() error

	mu    sync.RWMutex
	cache map[string]string
}

// NewPromptStore uses dir, or ~/.bankdoc/prompts when dir is empty.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		base, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "prompts")
	}

	s := &PromptStore{dir: dir, cache: make(map[string]string)}
	s.setup = sync.OnceValue(s.seed)
	return s, nil
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the template called name. Known prompts never fail: a
// missing, unreadable or broken file yields the built-in text.
func (s *PromptStore) Load(name string) (string, error) {
	def, known := knownPrompts[name]

	if err := s.setup(); err != nil {
		if known {
			return def.fallback, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", err)
	}

	s.mu.RLock()
	cached, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	prompt, err := s.read(name, def)
	if err != nil {
		if !known {
			return "", fmt.Errorf("load prompt %q: %w", name, err)
		}
		logger.Debug("Using built-in %s prompt: %v", name, err)
		prompt = def.fallback
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.cache[name]; ok {
		return cached, nil
	}
	s.cache[name] = prompt
	return prompt, nil
}

// Reload drops cached templates so the next Load reads the files again.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	clear(s.cache)
	s.mu.Unlock()
}

func (s *PromptStore) read(name string, def promptDef) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name+".txt"))
	if err != nil {
		return "", err
	}
	prompt := strings.TrimSpace(string(data))
	for _, p := range def.placeholders {
		if !strings.Contains(prompt, p) {
			return "", fmt.Errorf("prompt %q is missing the %s placeholder", name, p)
		}
	}
	return prompt, nil
}

// seed creates the directory, the default prompt files and a README,
// leaving any existing file untouched.
func (s *PromptStore) seed() error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create prompt directory: %w", err)
	}
	for name, def := range knownPrompts {
		if err := writeIfAbsent(filepath.Join(s.dir, name+".txt"), def.fallback); err != nil {
			return fmt.Errorf("create default prompt %q: %w", name, err)
		}
	}
	return writeIfAbsent(filepath.Join(s.dir, "README.md"), promptReadme)
}

func writeIfAbsent(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
