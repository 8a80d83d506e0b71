// Package contacts loads the contact names offered in search results.
package contacts

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"
)

// Load reads contact names from path. The file is either a vCard file, of
// which the FN properties are used, or one name per line with # comments.
// A missing file or empty path yields no contacts.
func Load(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return Parse(bytes.NewReader(data))
}

// Parse reads names from r, deduplicated in first-seen order.
func Parse(r io.Reader) ([]string, error) {
	var (
		names []string
		seen  = make(map[string]bool)
		vcard bool
	)
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.EqualFold(strings.TrimSpace(line), "BEGIN:VCARD") {
			vcard = true
			continue
		}
		if vcard {
			if name, ok := formattedName(line); ok {
				add(name)
			}
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		add(line)
	}
	return names, sc.Err()
}

// formattedName extracts the value of an FN property, which may carry
// parameters such as "FN;CHARSET=UTF-8:".
func formattedName(line string) (string, bool) {
	prop, value, ok := strings.Cut(line, ":")
	if !ok {
		return "", false
	}
	name, _, _ := strings.Cut(prop, ";")
	if !strings.EqualFold(name, "FN") {
		return "", false
	}
	return unescape(value), true
}

var vcardEscapes = strings.NewReplacer(`\,`, ",", `\;`, ";", `\\`, `\`, `\n`, " ", `\N`, " ")

func unescape(s string) string {
	return vcardEscapes.Replace(s)
}
