package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TechXTT/dbkit"
	"github.com/TechXTT/dbkit/pkg/statement"
)

type affected struct {
	RowsAffected int64 `json:"rows_affected"`
}

func parseObject(s string) (*statement.Fields, error) {
	f := statement.NewFields()
	if err := json.Unmarshal([]byte(s), f); err != nil {
		return nil, fmt.Errorf("object: %w", err)
	}
	return f, nil
}

func NewQueryCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "query SQL [PARAM...]",
		Short: "Run a statement and print all rows",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, cn dbkit.Core) (any, error) {
				return cn.Query(ctx, args[0], parseParams(args[1:])...)
			})
		},
	}
}

func NewFirstCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "first SQL [PARAM...]",
		Short: "Run a statement and print the first row, or null",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, cn dbkit.Core) (any, error) {
				row, _, err := cn.QueryFirst(ctx, args[0], parseParams(args[1:])...)
				return row, err
			})
		},
	}
}

func NewScalarCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "scalar SQL [PARAM...]",
		Short: "Run a statement and print the first column of the first row, or null",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, cn dbkit.Core) (any, error) {
				v, _, err := cn.ExecuteScalar(ctx, args[0], parseParams(args[1:])...)
				return v, err
			})
		},
	}
}

func NewExecCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "exec SQL [PARAM...]",
		Short: "Run a statement and print the affected row count",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, cn dbkit.Core) (any, error) {
				n, err := cn.Execute(ctx, args[0], parseParams(args[1:])...)
				return affected{n}, err
			})
		},
	}
}

func NewInsertCmd(g *globalFlags) *cobra.Command {
	var exclude []string
	cmd := &cobra.Command{
		Use:   "insert TABLE OBJECT",
		Short: "Insert a JSON object into a table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			obj, err := parseObject(args[1])
			if err != nil {
				return err
			}
			return g.run(cmd, func(ctx context.Context, cn dbkit.Core) (any, error) {
				n, err := cn.Insert(ctx, args[0], obj, exclude...)
				return affected{n}, err
			})
		},
	}
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "columns to leave out")
	return cmd
}

func NewInsertReturningCmd(g *globalFlags) *cobra.Command {
	var (
		exclude   []string
		returning string
	)
	cmd := &cobra.Command{
		Use:   "insert-returning TABLE OBJECT",
		Short: "Insert a JSON object and print one column of the new row",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			obj, err := parseObject(args[1])
			if err != nil {
				return err
			}
			return g.run(cmd, func(ctx context.Context, cn dbkit.Core) (any, error) {
				return cn.InsertReturning(ctx, args[0], obj, returning, exclude...)
			})
		},
	}
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "columns to leave out")
	cmd.Flags().StringVar(&returning, "returning", statement.DefaultPrimaryKey, "column to return")
	return cmd
}

func NewUpdateCmd(g *globalFlags) *cobra.Command {
	var (
		exclude []string
		pk      string
	)
	cmd := &cobra.Command{
		Use:   "update TABLE OBJECT",
		Short: "Update the rows whose key column matches the object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			obj, err := parseObject(args[1])
			if err != nil {
				return err
			}
			return g.run(cmd, func(ctx context.Context, cn dbkit.Core) (any, error) {
				n, err := cn.Update(ctx, args[0], obj, pk, exclude...)
				return affected{n}, err
			})
		},
	}
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "columns to leave out of SET")
	cmd.Flags().StringVar(&pk, "pk", statement.DefaultPrimaryKey, "key column")
	return cmd
}

func NewDeleteCmd(g *globalFlags) *cobra.Command {
	var pk string
	cmd := &cobra.Command{
		Use:   "delete TABLE VALUE",
		Short: "Delete the rows whose key column equals VALUE",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, cn dbkit.Core) (any, error) {
				n, err := cn.Delete(ctx, args[0], pk, parseParam(args[1]))
				return affected{n}, err
			})
		},
	}
	cmd.Flags().StringVar(&pk, "pk", statement.DefaultPrimaryKey, "key column")
	return cmd
}

func NewSelectCmd(g *globalFlags) *cobra.Command {
	var (
		columns []string
		where   []string
		wargs   []string
		orderBy string
		limit   int
		offset  int
	)
	cmd := &cobra.Command{
		Use:   "select TABLE",
		Short: "Build and run a SELECT",
		Long: "Build a SELECT from flags. Each --where condition uses ? markers; " +
			"--arg values fill them in order.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b := statement.Select(args[0]).Columns(columns...)
			params := parseParams(wargs)
			for _, w := range where {
				n := countMarkers(w)
				if n > len(params) {
					return fmt.Errorf("where %q needs %d args, %d left", w, n, len(params))
				}
				b = b.Where(w, params[:n]...)
				params = params[n:]
			}
			if len(params) > 0 {
				return fmt.Errorf("%d unused --arg values", len(params))
			}
			if orderBy != "" {
				b = b.OrderBy(orderBy)
			}
			if limit > 0 {
				b = b.Limit(limit)
			}
			if offset > 0 {
				b = b.Offset(offset)
			}
			st := b.Build()
			return g.run(cmd, func(ctx context.Context, cn dbkit.Core) (any, error) {
				return cn.Query(ctx, st.SQL, st.Params...)
			})
		},
	}
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "columns to select (default *)")
	cmd.Flags().StringArrayVar(&where, "where", nil, "condition with ? markers, repeatable")
	cmd.Flags().StringArrayVar(&wargs, "arg", nil, "value for the next ? marker, repeatable")
	cmd.Flags().StringVar(&orderBy, "order-by", "", "ORDER BY expression")
	cmd.Flags().IntVar(&limit, "limit", 0, "LIMIT")
	cmd.Flags().IntVar(&offset, "offset", 0, "OFFSET")
	return cmd
}

// countMarkers counts ? markers outside single-quoted literals.
func countMarkers(s string) int {
	n, quoted := 0, false
	for _, r := range s {
		switch {
		case r == '\'':
			quoted = !quoted
		case r == '?' && !quoted:
			n++
		}
	}
	return n
}
