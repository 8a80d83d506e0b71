package desktop

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-ini/ini"
)

const groupName = "Desktop Entry"

// Entry holds the keys of a desktop file that appcat uses.
type Entry struct {
	Type      string
	Name      string
	Exec      string
	Hidden    bool
	NoDisplay bool
}

// Launchable reports whether the entry is an application meant to be shown.
func (e *Entry) Launchable() bool {
	return e.Type == "Application" && !e.Hidden && !e.NoDisplay && strings.TrimSpace(e.Exec) != ""
}

var loadOptions = ini.LoadOptions{
	// Desktop files use ; as a list separator, never as a comment
	IgnoreInlineComment:     true,
	PreserveSurroundedQuote: true,
	SkipUnrecognizableLines: true,
}

// ParseFile reads the [Desktop Entry] group of the file at path.
func ParseFile(path string) (*Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	e, err := Parse(data)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return e, nil
}

// ParseError reports a desktop file that could be read but not parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string { return e.Path + ": " + e.Err.Error() }

func (e *ParseError) Unwrap() error { return e.Err }

// Parse reads the [Desktop Entry] group of data.
func Parse(data []byte) (*Entry, error) {
	f, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		return nil, err
	}
	sec, err := f.GetSection(groupName)
	if err != nil {
		return nil, fmt.Errorf("missing [%s] group", groupName)
	}

	return &Entry{
		Type:      sec.Key("Type").String(),
		Name:      sec.Key("Name").String(),
		Exec:      sec.Key("Exec").String(),
		Hidden:    sec.Key("Hidden").MustBool(false),
		NoDisplay: sec.Key("NoDisplay").MustBool(false),
	}, nil
}

// StripFieldCodes removes the %-field codes from an Exec line. "%%" becomes
// a literal "%".
func StripFieldCodes(exec string) string {
	var b strings.Builder
	for i := 0; i < len(exec); i++ {
		c := exec[i]
		if c != '%' || i+1 == len(exec) {
			b.WriteByte(c)
			continue
		}
		i++
		if exec[i] == '%' {
			b.WriteByte('%')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
