package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vhavlena/smtswitch/pkg/frontend/rego"
	"github.com/vhavlena/smtswitch/pkg/log"
	"github.com/vhavlena/smtswitch/pkg/model"
	"github.com/vhavlena/smtswitch/pkg/smt"
	"github.com/vhavlena/smtswitch/pkg/smt/factory"
	"github.com/vhavlena/smtswitch/pkg/types"
)

type checkOptions struct {
	spec         string
	inputSchema  string
	inputExample bool
	timeout      time.Duration
	perRule      bool
}

// declarations types the parameters and input fields of a module.
type declarations struct {
	params types.Parameters
	schema *types.InputSchema
}

// ruleResult is the outcome of checking one rule formula.
type ruleResult struct {
	rule   string
	result smt.Result
	values []namedValue
}

type namedValue struct {
	name  string
	value model.Value
}

func newCheckCmd(a *app) *cobra.Command {
	opts := &checkOptions{}
	cmd := &cobra.Command{
		Use:   "check FILE.rego",
		Short: "Check the satisfiability of every rule of a Rego module",
		Long: `Translate every rule body of a Rego module into a formula and check it.
Satisfiable rules are followed by a model for the symbols they mention.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("timeout") {
				a.cfg.Timeout.Duration = opts.timeout
			}
			return runCheck(cmd.Context(), a, opts, args[0], cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.spec, "spec", "", "YAML file with spec.parameters declarations")
	cmd.Flags().StringVar(&opts.inputSchema, "input-schema", "", "JSON Schema of the input document")
	cmd.Flags().BoolVar(&opts.inputExample, "input-example", false, "read --input-schema as an example input document")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "time limit for each check (0 for none)")
	cmd.Flags().BoolVar(&opts.perRule, "per-rule", false, "check every rule in its own session, concurrently")
	return cmd
}

func runCheck(ctx context.Context, a *app, opts *checkOptions, path string, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	mod, err := rego.ParseModule(path, string(src))
	if err != nil {
		return err
	}
	var decls declarations
	if opts.spec != "" {
		if decls.params, err = types.LoadSpecFile(opts.spec); err != nil {
			return err
		}
	}
	if opts.inputSchema != "" {
		if decls.schema, err = types.LoadInputSchema(opts.inputSchema, opts.inputExample); err != nil {
			return err
		}
	}

	logger := a.logger.With(log.Params{"module": mod.Package.Path.String()})
	var results []ruleResult
	if opts.perRule {
		results, err = checkPerRule(ctx, a, logger, mod, decls)
	} else {
		results, err = checkShared(ctx, a, logger, mod, decls)
	}
	if err != nil {
		return err
	}
	for _, r := range results {
		printResult(w, r)
	}
	return nil
}

// session opens a solver and translates the module into it.
func session(a *app, logger *log.Logger, mod *ast.Module, decls declarations) (smt.Solver, []rego.RuleFormula, error) {
	s, err := factory.New(a.cfg, logger, a.col)
	if err != nil {
		return nil, nil, err
	}
	topts := []rego.Option{rego.WithInputSchema(decls.schema)}
	if a.cfg.IntWidth > 0 {
		srt, err := factory.IntSort(s, a.cfg)
		if err != nil {
			return nil, nil, err
		}
		topts = append(topts, rego.WithIntSort(srt))
	}
	tr, err := rego.NewTranslator(s, decls.params, topts...)
	if err != nil {
		return nil, nil, err
	}
	rules, err := tr.TranslateModule(mod)
	if err != nil {
		return nil, nil, err
	}
	return s, rules, nil
}

// checkShared decides every rule in one session, each inside its own
// context frame.
func checkShared(ctx context.Context, a *app, logger *log.Logger, mod *ast.Module, decls declarations) ([]ruleResult, error) {
	s, rules, err := session(a, logger, mod, decls)
	if err != nil {
		return nil, err
	}
	out := make([]ruleResult, 0, len(rules))
	for _, rf := range rules {
		if err := s.Push(1); err != nil {
			return nil, err
		}
		r, err := decide(ctx, a, s, rf)
		if err != nil {
			return nil, err
		}
		if err := s.Pop(1); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// checkPerRule gives every rule a fresh session. Sessions are not shared
// between goroutines.
func checkPerRule(ctx context.Context, a *app, logger *log.Logger, mod *ast.Module, decls declarations) ([]ruleResult, error) {
	_, rules, err := session(a, logger, mod, decls)
	if err != nil {
		return nil, err
	}
	out := make([]ruleResult, len(rules))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range rules {
		g.Go(func() error {
			s, own, err := session(a, logger.With(log.Params{"rule": rules[i].Rule, "index": i}), mod, decls)
			if err != nil {
				return err
			}
			r, err := decide(gctx, a, s, own[i])
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func decide(ctx context.Context, a *app, s smt.Solver, rf rego.RuleFormula) (ruleResult, error) {
	if err := s.Assert(rf.Formula); err != nil {
		return ruleResult{}, err
	}
	if d := a.cfg.Timeout.Duration; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	res, err := s.CheckSat(ctx)
	if err != nil {
		return ruleResult{}, err
	}
	out := ruleResult{rule: rf.Rule, result: res}
	if !res.IsSat() {
		return out, nil
	}
	for _, sym := range smt.FreeSymbols(rf.Formula) {
		v, err := model.ValueFromModelVar(s, sym.Name())
		if err != nil {
			return ruleResult{}, err
		}
		out.values = append(out.values, namedValue{name: sym.Name(), value: v})
	}
	return out, nil
}

var (
	satColor     = color.New(color.FgGreen, color.Bold)
	unsatColor   = color.New(color.FgRed, color.Bold)
	unknownColor = color.New(color.FgYellow)
)

func printResult(w io.Writer, r ruleResult) {
	switch r.result.Status {
	case smt.Sat:
		fmt.Fprintf(w, "%s: %s\n", r.rule, satColor.Sprint("sat"))
	case smt.Unsat:
		fmt.Fprintf(w, "%s: %s\n", r.rule, unsatColor.Sprint("unsat"))
	default:
		fmt.Fprintf(w, "%s: %s (%s)\n", r.rule, unknownColor.Sprint("unknown"), r.result.Reason)
	}
	for _, nv := range r.values {
		fmt.Fprintf(w, "  %s = %s\n", nv.name, render(nv.value))
	}
}

func render(v model.Value) string {
	if s, ok := v.String(); ok {
		return strconv.Quote(s)
	}
	return fmt.Sprint(v.AsInterface())
}
