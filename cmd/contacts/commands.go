package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/oapi-codegen/nullable"
	"github.com/spf13/cobra"

	"github.com/Overland-East-Bay/contact-manager/internal/app/contacts"
	"github.com/Overland-East-Bay/contact-manager/internal/domain"
	"github.com/Overland-East-Bay/contact-manager/internal/ports/out/contactrepo"
)

type queryFlags struct {
	search string
	group  string
	sort   string
	order  string
	page   int
	limit  int
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.group, "group", "", "only contacts in this group")
	cmd.Flags().StringVar(&f.sort, "sort", "", "sort by name, email or createdAt")
	cmd.Flags().StringVar(&f.order, "order", "asc", "asc or desc")
	cmd.Flags().IntVar(&f.page, "page", 1, "page number")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "page size (default from config)")
}

func (f *queryFlags) query() (contacts.Query, error) {
	by, ok := contacts.ParseSortField(f.sort)
	if !ok {
		return contacts.Query{}, fmt.Errorf("unknown sort field %q (want name, email or createdAt)", f.sort)
	}
	order, ok := contacts.ParseSortOrder(f.order)
	if !ok {
		return contacts.Query{}, fmt.Errorf("unknown sort order %q (want asc or desc)", f.order)
	}
	return contacts.Query{
		Search:    f.search,
		Group:     f.group,
		SortBy:    by,
		SortOrder: order,
		Page:      f.page,
		Limit:     f.limit,
	}, nil
}

func newListCmd(c *cli) *cobra.Command {
	var qf queryFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List contacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := qf.query()
			if err != nil {
				return err
			}
			page, err := c.svc.List(cmd.Context(), q)
			if err != nil {
				return err
			}
			renderPage(cmd.OutOrStdout(), q.Search, page)
			return nil
		},
	}
	cmd.Flags().StringVar(&qf.search, "search", "", "match name, email or phone")
	qf.register(cmd)
	return cmd
}

func newGetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ct, err := c.svc.Get(cmd.Context(), domain.ContactID(args[0]))
			if err != nil {
				return err
			}
			renderContact(cmd.OutOrStdout(), ct)
			return nil
		},
	}
}

type contactFlags struct {
	name       string
	email      string
	phone      string
	group      string
	clearPhone bool
}

func (f *contactFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "full name")
	cmd.Flags().StringVar(&f.email, "email", "", "email address")
	cmd.Flags().StringVar(&f.phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&f.group, "group", "", "group ("+strings.Join(domain.ContactGroups, ", ")+")")
}

func newAddCmd(c *cli) *cobra.Command {
	var cf contactFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a contact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ct, err := c.svc.Create(cmd.Context(), contacts.CreateInput{
				Name:  cf.name,
				Email: cf.email,
				Phone: cf.phone,
				Group: cf.group,
			})
			if err != nil {
				return describe(err)
			}
			renderContact(cmd.OutOrStdout(), ct)
			return nil
		},
	}
	cf.register(cmd)
	return cmd
}

func newEditCmd(c *cli) *cobra.Command {
	var cf contactFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a contact; only the flags given are sent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := contactrepo.Patch{}
			flags := cmd.Flags()
			if flags.Changed("name") {
				p.Name = nullable.NewNullableWithValue(domain.NormalizeHumanName(cf.name))
			}
			if flags.Changed("email") {
				p.Email = nullable.NewNullableWithValue(strings.TrimSpace(cf.email))
			}
			if flags.Changed("group") {
				p.Group = nullable.NewNullableWithValue(cf.group)
			}
			switch {
			case cf.clearPhone:
				p.Phone = nullable.NewNullNullable[string]()
			case flags.Changed("phone"):
				p.Phone = nullable.NewNullableWithValue(domain.NormalizePhone(cf.phone))
			}
			if p.IsEmpty() {
				return errors.New("nothing to change: pass at least one of --name, --email, --phone, --group, --clear-phone")
			}

			ct, err := c.svc.Update(cmd.Context(), domain.ContactID(args[0]), p)
			if err != nil {
				return describe(err)
			}
			renderContact(cmd.OutOrStdout(), ct)
			return nil
		},
	}
	cf.register(cmd)
	cmd.Flags().BoolVar(&cf.clearPhone, "clear-phone", false, "remove the phone number")
	cmd.MarkFlagsMutuallyExclusive("phone", "clear-phone")
	return cmd
}

func newDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.svc.Delete(cmd.Context(), domain.ContactID(args[0])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func newSearchCmd(c *cli) *cobra.Command {
	var qf queryFlags
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search interactively: each line read from stdin replaces the search text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := qf.query()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			ss := c.svc.NewSearchSession(ctx, q, c.cfg.SearchDebounce.Std())
			defer ss.Close()

			lines := make(chan string)
			go func() {
				defer close(lines)
				sc := bufio.NewScanner(cmd.InOrStdin())
				for sc.Scan() {
					select {
					case lines <- strings.TrimSpace(sc.Text()):
					case <-ctx.Done():
						return
					}
				}
			}()

			var (
				eof  bool
				want contacts.Query
			)
			for {
				select {
				case line, ok := <-lines:
					if !ok {
						// Input ended: load the last query now and stop once it is shown.
						lines, eof = nil, true
						ss.Refresh()
						want = ss.Query()
						continue
					}
					ss.SetSearch(line)
				case r := <-ss.Results():
					if r.Err != nil {
						fmt.Fprintf(out, "error: %v\n", r.Err)
					} else {
						renderPage(out, r.Query.Search, r.Page)
					}
					if eof && r.Query == want {
						return nil
					}
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		},
	}
	qf.register(cmd)
	return cmd
}

func newGroupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List the known contact groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (no filter)\n", domain.AllGroups)
			for _, g := range domain.ContactGroups {
				fmt.Fprintln(out, g)
			}
			return nil
		},
	}
}

// describe expands validation errors into one line per field.
func describe(err error) error {
	ve := (*contacts.ValidationError)(nil)
	if !errors.As(err, &ve) {
		return err
	}
	var sb strings.Builder
	sb.WriteString("invalid contact:")
	for _, f := range []string{contacts.FieldName, contacts.FieldEmail} {
		if msg := ve.Field(f); msg != "" {
			fmt.Fprintf(&sb, "\n  --%s: %s", f, msg)
		}
	}
	return errors.New(sb.String())
}
