package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Overland-East-Bay/contact-manager/internal/app/contacts"
	"github.com/Overland-East-Bay/contact-manager/internal/domain"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Faint(true)
)

const timeLayout = "2006-01-02 15:04"

func newTable() *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func renderPage(w io.Writer, term string, p contacts.Page) {
	fmt.Fprintln(w, contacts.SearchSummary(term, p.Total, false))
	if len(p.Data) == 0 {
		return
	}

	t := newTable().Headers("ID", "Tên", "Email", "Điện thoại", "Nhóm")
	for _, c := range p.Data {
		t.Row(string(c.ID), c.Name, c.Email, orDash(c.Phone), orDash(c.Group))
	}
	fmt.Fprintln(w, t.String())
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("Trang %d/%d (%d mỗi trang)", p.Page, max(p.TotalPages, 1), p.Limit)))
}

func renderContact(w io.Writer, c domain.Contact) {
	t := newTable().Headers("Trường", "Giá trị").
		Row("ID", string(c.ID)).
		Row("Tên", c.Name).
		Row("Email", c.Email).
		Row("Điện thoại", orDash(c.Phone)).
		Row("Nhóm", orDash(c.Group)).
		Row("Tạo lúc", c.CreatedAt.Local().Format(timeLayout)).
		Row("Cập nhật", c.UpdatedAt.Local().Format(timeLayout))
	fmt.Fprintln(w, t.String())
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
