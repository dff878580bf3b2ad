package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/reqdistill/internal/core/ports/driven"
	"github.com/custodia-labs/reqdistill/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore serves the extraction and judge templates from
// <dir>/<name>.txt, falling back to the embedded defaults.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts seed the prompt directory and back up broken user files.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptExtractRequirements: `You are an expert analyst of technical specifications. Read the excerpt below and list every requirement it states or clearly implies.

Rules:
- Write each requirement as one short, self-contained sentence that can be verified.
- Functional requirements describe what the system does: features, user actions, data processed.
- Non-functional requirements describe how well it does it: performance, security, availability, usability, compliance, maintainability.
- Do not invent requirements the excerpt does not support. Do not repeat a requirement.
- Keep the language of the excerpt.
- If a category has no requirement, keep its heading and leave the list empty.

Answer with ONLY these two numbered lists, with no introduction and no conclusion:

Functional Requirements:
1. ...

Non-Functional Requirements:
1. ...

Excerpt:
%s`,

	driven.PromptEntailmentJudge: `You are a natural language inference classifier.
Premise: %s
Hypothesis: %s

Does the premise entail the hypothesis? Answer only with a JSON object of
probabilities summing to 1, for example:
{"entailment": 0.1, "neutral": 0.7, "contradiction": 0.2}`,
}

// placeholders is the number of %s verbs each built-in template needs.
// An edited file with fewer is rejected in favour of the default.
var placeholders = map[string]int{
	driven.PromptExtractRequirements: 1,
	driven.PromptEntailmentJudge:     2,
}

// NewPromptStore creates a file-based prompt store rooted at promptDir.
// If promptDir is empty, defaults to ~/.reqdistill/prompts/.
// No I/O happens until the first Load.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".reqdistill", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the template called name. The first call seeds the prompt
// directory with the defaults. An unreadable, empty or malformed file
// yields the embedded default.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)

	s.mu.RLock()
	prompt, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return prompt, nil
	}

	prompt, err := s.resolve(name)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()
	return prompt, nil
}

// resolve reads name from disk and checks it against the default.
func (s *PromptStore) resolve(name string) (string, error) {
	def, hasDefault := defaultPrompts[name]
	if s.initErr != nil {
		if hasDefault {
			return def, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	prompt, err := s.loadFromFile(name)
	switch {
	case err != nil && hasDefault:
		return def, nil
	case err != nil:
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	case !hasDefault:
		return prompt, nil
	case prompt == "":
		logger.Warn("prompt %s is empty, using the default", name)
		return def, nil
	case strings.Count(prompt, "%s") < placeholders[name]:
		logger.Warn("prompt %s needs %d %%s placeholder(s), using the default", name, placeholders[name])
		return def, nil
	}
	return prompt, nil
}

// Reload clears the prompt cache, so edits on disk apply to the next Load.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory, seeds missing default files
// and writes the README. Existing files are never overwritten.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
			return
		}
	}

	s.initErr = s.createReadme()
}

func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.promptDir, name+".txt"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	content := `# reqdistill Prompts

This directory contains the prompts reqdistill sends to language models.

## Files

- ` + "`extract_requirements.txt`" + ` - Turns one chunk of a document into two numbered
  lists of functional and non-functional requirements
- ` + "`entailment_judge.txt`" + ` - Scores whether one requirement entails another when
  deduplication uses an LLM instead of an NLI endpoint

## Customisation

Edit any file to customise model behaviour. Changes take effect on the next
command. Delete a file to restore its default.

The extraction prompt must keep the headings "Functional Requirements:" and
"Non-Functional Requirements:" (or the French "Exigences Fonctionnelles :" and
"Exigences Non Fonctionnelles :"), since the output parser looks for them.

## Placeholders

- ` + "`extract_requirements.txt`" + ` - one ` + "`%s`" + ` for the chunk text
- ` + "`entailment_judge.txt`" + ` - two ` + "`%s`" + `: premise, then hypothesis

Cached results are keyed by chunk text only. Run "reqdistill cache clear" after
editing the extraction prompt so earlier answers are not reused.
`
	return os.WriteFile(path, []byte(content), 0600)
}
