package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/and161185/nullscape-admin/internal/model"
	"github.com/and161185/nullscape-admin/internal/pagination"
	"github.com/and161185/nullscape-admin/internal/resource"
	"github.com/and161185/nullscape-admin/internal/validate"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	var (
		q       resource.ListQuery
		filters []string
	)
	c := &cobra.Command{
		Use:   "list <resource>",
		Short: "List one page of a collection",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			if err := a.authenticate(ctx); err != nil {
				return err
			}
			res, err := a.lookup(args[0])
			if err != nil {
				return err
			}
			if q.Filters, err = parseFilters(res, filters); err != nil {
				return err
			}
			st := pagination.New().WithLimit(q.Limit)
			if q.Limit != 0 && st.Limit != q.Limit {
				return fmt.Errorf("page size must be one of %v", pagination.PageSizes)
			}
			q.Limit = st.Limit

			page, err := resource.For[model.Record](a.client, res).List(ctx, q)
			if err != nil {
				return a.failed(err, "Failed to load "+strings.ToLower(res.Title))
			}
			if len(page.Items) == 0 {
				fmt.Fprintln(a.out, mutedStyle.Render("No "+strings.ToLower(res.Title)+" found."))
				return nil
			}
			fmt.Fprintln(a.out, recordTable(res, page.Items))
			printPager(a.out, st.Update(page.Page, page.Pages))
			return nil
		}),
	}
	f := c.Flags()
	f.StringVarP(&q.Q, "query", "q", "", "search text")
	f.StringVar(&q.Status, "status", "", "status filter")
	f.StringArrayVar(&filters, "filter", nil, "extra filter as key=value (repeatable)")
	f.IntVar(&q.Page, "page", 1, "page number")
	f.IntVar(&q.Limit, "limit", pagination.DefaultPageSize, "page size")
	return c
}

func printPager(w io.Writer, st pagination.State) {
	if !st.Visible() {
		return
	}
	nums := make([]string, 0, 5)
	for _, n := range st.Window(5) {
		if n == st.Page {
			nums = append(nums, fmt.Sprintf("[%d]", n))
		} else {
			nums = append(nums, fmt.Sprint(n))
		}
	}
	line := fmt.Sprintf("Page %d of %d  %s", st.Page, st.Pages, strings.Join(nums, " "))
	if st.HasNext() {
		line += fmt.Sprintf("  (next: --page %d)", st.Next().Page)
	}
	fmt.Fprintln(w, mutedStyle.Render(line))
}

func parseFilters(res resource.Resource, raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(raw))
	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("filter %q: want key=value", kv)
		}
		known := false
		for _, f := range res.Filters {
			known = known || f == k
		}
		if !known {
			return nil, fmt.Errorf("%s has no %q filter", res.Name, k)
		}
		out[k] = v
	}
	return out, nil
}

func newGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <resource> <id>",
		Short: "Show one entity as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			if err := a.authenticate(ctx); err != nil {
				return err
			}
			res, err := a.lookup(args[0])
			if err != nil {
				return err
			}
			rec, err := resource.For[model.Record](a.client, res).Get(ctx, args[1])
			if err != nil {
				return a.failed(err, "Failed to load "+strings.ToLower(res.Singular))
			}
			return printJSON(a.out, rec)
		}),
	}
}

// bodyFlags reads an entity body from --data or --file ("-" is stdin).
type bodyFlags struct {
	data string
	file string
}

func (b *bodyFlags) register(c *cobra.Command) {
	c.Flags().StringVarP(&b.data, "data", "d", "", "entity as a JSON object")
	c.Flags().StringVarP(&b.file, "file", "f", "", "read the entity JSON from a file, - for stdin")
	c.MarkFlagsMutuallyExclusive("data", "file")
}

func (b *bodyFlags) read(in io.Reader) (model.Record, error) {
	raw := []byte(b.data)
	switch {
	case b.file == "-":
		var err error
		if raw, err = io.ReadAll(in); err != nil {
			return nil, err
		}
	case b.file != "":
		var err error
		if raw, err = os.ReadFile(b.file); err != nil {
			return nil, err
		}
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, &validate.FieldError{Field: "body", Message: "Entity body is required (--data or --file)"}
	}
	var rec model.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, &validate.FieldError{Field: "body", Message: "Invalid JSON in entity body"}
	}
	return rec, nil
}

// invalid toasts field errors like the edit forms show them inline; other
// errors pass through.
func (a *app) invalid(err error) error {
	var fe *validate.FieldError
	if !errors.As(err, &fe) {
		return err
	}
	return a.failed(err, "")
}

// prepare applies the client-side checks the edit forms run before saving.
func prepare(res resource.Resource, rec model.Record, creating bool) error {
	var ve validate.Errors
	if creating && len(res.Columns) > 0 {
		col := res.Columns[0]
		v, _ := rec[col.Field].(string)
		if fe := validate.Required(col.Field, col.Header, v); fe != nil {
			ve = append(ve, fe)
		}
	}
	if res.Name == "pricing" {
		if raw, ok := rec["features"].([]any); ok {
			lines := make([]string, 0, len(raw))
			for _, f := range raw {
				s, _ := f.(string)
				lines = append(lines, s)
			}
			rec["features"] = validate.PricingFeatures(lines)
		}
	}
	if res.Name == "cms" {
		if s, ok := rec["sections"].(string); ok {
			sections, err := validate.ParseSections(s)
			if err != nil {
				var fe *validate.FieldError
				if errors.As(err, &fe) {
					ve = append(ve, fe)
				}
			} else {
				rec["sections"] = sections
			}
		}
	}
	return ve.Err()
}

func newCreateCmd(opts *rootOptions) *cobra.Command {
	var body bodyFlags
	c := &cobra.Command{
		Use:   "create <resource>",
		Short: "Create an entity",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			if err := a.authenticate(ctx); err != nil {
				return err
			}
			res, err := a.lookup(args[0])
			if err != nil {
				return err
			}
			if res.ReadOnly {
				return fmt.Errorf("%s are read-only", strings.ToLower(res.Title))
			}
			rec, err := body.read(a.in)
			if err != nil {
				return a.invalid(err)
			}
			if err := prepare(res, rec, true); err != nil {
				return a.invalid(err)
			}
			coll := resource.For[model.Record](a.client, res)
			out, err := mutate(ctx, a, action{
				name:    res.Name + ".create",
				success: res.Singular + " created",
				failure: "Failed to create " + strings.ToLower(res.Singular),
			}, coll.Create, any(rec))
			if err != nil {
				return err
			}
			if out != nil {
				fmt.Fprintln(a.out, out.ID())
			}
			return nil
		}),
	}
	body.register(c)
	return c
}

func newUpdateCmd(opts *rootOptions) *cobra.Command {
	var body bodyFlags
	c := &cobra.Command{
		Use:   "update <resource> <id>",
		Short: "Replace an entity",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			if err := a.authenticate(ctx); err != nil {
				return err
			}
			res, err := a.lookup(args[0])
			if err != nil {
				return err
			}
			rec, err := body.read(a.in)
			if err != nil {
				return a.invalid(err)
			}
			if err := prepare(res, rec, false); err != nil {
				return a.invalid(err)
			}
			coll := resource.For[model.Record](a.client, res)
			_, err = mutate(ctx, a, action{
				name:    res.Name + ".update",
				success: res.Singular + " updated",
				failure: "Failed to update " + strings.ToLower(res.Singular),
			}, func(ctx context.Context, rec model.Record) (model.Record, error) {
				return coll.Update(ctx, args[1], rec)
			}, rec)
			return err
		}),
	}
	body.register(c)
	return c
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	var yes bool
	c := &cobra.Command{
		Use:   "delete <resource> <id>",
		Short: "Delete an entity after confirmation",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			if err := a.authenticate(ctx); err != nil {
				return err
			}
			res, err := a.lookup(args[0])
			if err != nil {
				return err
			}
			if !yes {
				ok, err := confirm(fmt.Sprintf("Delete %s %s?", strings.ToLower(res.Singular), args[1]))
				if err != nil {
					return err
				}
				if !ok {
					a.bus.Info("Cancelled")
					return nil
				}
			}
			coll := resource.For[model.Record](a.client, res)
			_, err = mutate(ctx, a, action{
				name:    res.Name + ".delete",
				success: res.Singular + " deleted",
				failure: "Failed to delete " + strings.ToLower(res.Singular),
			}, func(ctx context.Context, id string) (struct{}, error) {
				return struct{}{}, coll.Delete(ctx, id)
			}, args[1])
			return err
		}),
	}
	c.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return c
}
