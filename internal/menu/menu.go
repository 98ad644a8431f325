// Package menu renders numbered choice lists and reads the operator's pick.
package menu

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

//ErrNoChoices is returned by Select for a list without items
var ErrNoChoices = errors.New("nothing to choose from")

//MenuItem holds one choice, with an optional note shown after its name
type MenuItem struct {
	Name string
	Note string
}

//MenuItemList holds a titled list of choices
type MenuItemList struct {
	Title string
	Items []*MenuItem
}

func (m *MenuItemList) AddItem(name, note string) {
	m.Items = append(m.Items, &MenuItem{Name: name, Note: note})
}

//GetRender returns the list as text, numbering items from 1
func (m *MenuItemList) GetRender() string {
	menu := "- " + m.Title + "\n\n"
	width := 0
	for _, item := range m.Items {
		if len(item.Name) > width {
			width = len(item.Name)
		}
	}
	for i, item := range m.Items {
		line := fmt.Sprintf("   %2d. %-*s", i+1, width, item.Name)
		if item.Note != "" {
			line += "  " + item.Note
		}
		menu += strings.TrimRight(line, " ") + "\n"
	}
	return menu
}

//Select shows the list on out and keeps prompting on in until a number
//between 1 and len(Items) is entered. It returns the zero-based index.
//Running out of input returns io.EOF.
func (m *MenuItemList) Select(in io.Reader, out io.Writer) (int, error) {
	if len(m.Items) == 0 {
		return -1, ErrNoChoices
	}
	fmt.Fprint(out, m.GetRender()+"\n")

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "Enter a number [1-%d]: ", len(m.Items))
		if !sc.Scan() {
			fmt.Fprintln(out)
			if err := sc.Err(); err != nil {
				return -1, err
			}
			return -1, io.EOF
		}
		sel := strings.TrimSpace(sc.Text())
		n, err := strconv.Atoi(sel)
		if err != nil {
			fmt.Fprintf(out, "Invalid input %q, please enter a number.\n", sel)
			continue
		}
		if n < 1 || n > len(m.Items) {
			fmt.Fprintf(out, "Invalid choice %d, please pick between 1 and %d.\n", n, len(m.Items))
			continue
		}
		return n - 1, nil
	}
}
