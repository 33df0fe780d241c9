package shortcut

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/jsonc"
	"mvdan.cc/sh/v3/syntax"
)

// SplitScript parses a shell script and returns one command per top-level
// statement, normalised by the shell printer. Comments are dropped.
func SplitScript(r io.Reader, name string) ([]string, error) {
	file, err := syntax.NewParser().Parse(r, name)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	printer := syntax.NewPrinter()
	commands := make([]string, 0, len(file.Stmts))
	for _, stmt := range file.Stmts {
		var buf bytes.Buffer
		if err := printer.Print(&buf, stmt); err != nil {
			return nil, fmt.Errorf("print statement: %w", err)
		}
		if cmd := strings.TrimSpace(buf.String()); cmd != "" {
			commands = append(commands, cmd)
		}
	}
	return commands, nil
}

type codeSnippet struct {
	Body        json.RawMessage `json:"body"`
	Description string          `json:"description"`
	Scope       string          `json:"scope"`
}

// scopeExtensions maps editor language ids to file extensions.
var scopeExtensions = map[string][]string{
	"c":               {".c", ".h"},
	"cpp":             {".cpp", ".hpp", ".cc"},
	"css":             {".css"},
	"dart":            {".dart"},
	"go":              {".go"},
	"html":            {".html"},
	"java":            {".java"},
	"javascript":      {".js"},
	"javascriptreact": {".jsx"},
	"json":            {".json"},
	"kotlin":          {".kt"},
	"markdown":        {".md"},
	"python":          {".py"},
	"rust":            {".rs"},
	"shellscript":     {".sh"},
	"swift":           {".swift"},
	"typescript":      {".ts"},
	"typescriptreact": {".tsx"},
	"yaml":            {".yaml", ".yml"},
}

// ScopePattern converts a comma separated list of language ids into a file
// type pattern. An empty scope, or one with no known language, returns
// fallback.
func ScopePattern(scope, fallback string) string {
	var exts []string
	for _, lang := range strings.Split(scope, ",") {
		exts = append(exts, scopeExtensions[strings.ToLower(strings.TrimSpace(lang))]...)
	}
	if len(exts) == 0 {
		return fallback
	}
	return strings.Join(exts, ",")
}

// ParseCodeSnippets reads an editor snippet file (JSON with comments and
// trailing commas) and returns the snippets it defines, in file order. The
// entry name becomes the title; a body given as an array of lines is
// joined with newlines.
func ParseCodeSnippets(data []byte, fallbackFileTypes string) ([]SnippetShortcut, error) {
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read snippets: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("read snippets: expected an object")
	}

	var out []SnippetShortcut
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read snippets: %w", err)
		}
		name, _ := keyTok.(string)
		var entry codeSnippet
		if err := dec.Decode(&entry); err != nil {
			return nil, fmt.Errorf("snippet %q: %w", name, err)
		}
		body, err := snippetBody(entry.Body)
		if err != nil {
			return nil, fmt.Errorf("snippet %q: %w", name, err)
		}
		out = append(out, SnippetShortcut{
			Title:       name,
			FileTypes:   ScopePattern(entry.Scope, fallbackFileTypes),
			SnippetCode: body,
			Description: entry.Description,
		})
	}
	return out, nil
}

func snippetBody(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("missing body")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var lines []string
	if err := json.Unmarshal(raw, &lines); err != nil {
		return "", fmt.Errorf("body must be a string or an array of strings")
	}
	return strings.Join(lines, "\n"), nil
}
