package wizard

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// ValidateSlug checks a canonical model slug. Empty is allowed and means
// "leave unmapped".
func ValidateSlug(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if !slugPattern.MatchString(s) {
		return fmt.Errorf("invalid slug %q: use lowercase letters, digits, '.', '-' or '_'", s)
	}
	return nil
}

// SuggestSlug derives a slug from a leaderboard alias, e.g.
// "Claude 3.5 Sonnet (Oct)" becomes "claude-3.5-sonnet-oct".
func SuggestSlug(alias string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(alias) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// RunMappingWizard prompts for a slug for each unmapped alias, one form group
// per mapping file. unmapped is keyed by mapping file name. The result holds
// only non-empty answers, keyed the same way.
func RunMappingWizard(in io.Reader, out io.Writer, unmapped map[string][]string) (map[string]map[string]string, error) {
	files := make([]string, 0, len(unmapped))
	for name := range unmapped {
		files = append(files, name)
	}
	sort.Strings(files)

	answers := make(map[string]map[string]*string)
	var groups []*huh.Group
	for _, name := range files {
		aliases := append([]string(nil), unmapped[name]...)
		sort.Strings(aliases)
		answers[name] = make(map[string]*string, len(aliases))

		var fields []huh.Field
		for _, alias := range aliases {
			v := new(string)
			answers[name][alias] = v
			fields = append(fields, huh.NewInput().
				Title(fmt.Sprintf("%s: %s", name, alias)).
				Description("Canonical model slug, empty to skip").
				Placeholder(SuggestSlug(alias)).
				Value(v).
				Validate(ValidateSlug))
		}
		if len(fields) > 0 {
			groups = append(groups, huh.NewGroup(fields...))
		}
	}
	if len(groups) == 0 {
		return map[string]map[string]string{}, nil
	}

	form := huh.NewForm(groups...).
		WithOutput(out)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithInput(&lineReader{r: bufio.NewReader(in)}).WithAccessible(true)
	} else {
		form = form.WithInput(in)
	}

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}

	result := make(map[string]map[string]string)
	for name, byAlias := range answers {
		for alias, v := range byAlias {
			slug := strings.TrimSpace(*v)
			if slug == "" {
				continue
			}
			if result[name] == nil {
				result[name] = make(map[string]string)
			}
			result[name][alias] = slug
		}
	}
	return result, nil
}

// lineReader returns at most one line per Read, so each accessible prompt
// consumes only its own answer even if it wraps the reader in a scanner.
type lineReader struct {
	r *bufio.Reader
}

func (l *lineReader) Read(p []byte) (int, error) {
	line, err := l.r.ReadSlice('\n')
	if err == bufio.ErrBufferFull {
		err = nil
	}
	n := copy(p, line)
	if n < len(line) {
		// Keep the rest of the line for the next Read.
		l.r = bufio.NewReader(io.MultiReader(strings.NewReader(string(line[n:])), l.r))
	}
	return n, err
}
