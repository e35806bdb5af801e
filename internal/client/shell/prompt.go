package shell

import (
	"fmt"
	"strings"

	"github.com/atinyakov/BookKeeper/internal/client/form"
)

// readLine prints label and returns the next input line, trimmed.
// ok is false once input is exhausted.
func (s *Shell) readLine(label string) (line string, ok bool) {
	fmt.Fprint(s.out, label)
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

// confirm asks a yes/no question; anything but y or yes is no.
func (s *Shell) confirm(question string) bool {
	answer, ok := s.readLine(question + " [y/N]: ")
	if !ok {
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	}
	return false
}

// promptForBook fills the form field by field, showing each validation error
// as soon as the value is entered. In edit mode an empty answer keeps the
// current value. It returns false if input ended.
func (s *Shell) promptForBook(f *form.Form) bool {
	v := f.View()
	_, editing := v.Mode.Target()

	name, ok := s.readLine(fieldLabel("Enter name", v.Name, editing))
	if !ok {
		return false
	}
	if name != "" || !editing {
		f.SetName(name)
	}
	if msg := f.View().NameError; msg != "" {
		fmt.Fprintln(s.out, msg)
	}

	desc, ok := s.readLine(fieldLabel("Enter description", v.Description, editing))
	if !ok {
		return false
	}
	if desc != "" || !editing {
		f.SetDescription(desc)
	}
	if msg := f.View().DescriptionError; msg != "" {
		fmt.Fprintln(s.out, msg)
	}
	return true
}

func fieldLabel(label, current string, editing bool) string {
	if editing {
		return fmt.Sprintf("%s [%s]: ", label, current)
	}
	return label + ": "
}
