// Command rvm builds and runs one of a handful of embedded demo programs
// against the compiler and VM. It exists for manual smoke-testing during
// development, not as a language front end: there is no lexer or parser in
// this module, so every "program" below is an AST literal rather than
// source text.
package main

import (
	"flag"
	"fmt"
	"os"

	"rvm/ast"
	"rvm/compiler"
	"rvm/isa"
	"rvm/vm"

	"github.com/sirupsen/logrus"
)

var (
	demoName = flag.String("demo", "fib", "which embedded demo to run: fib, loop, strings")
	verbose  = flag.Bool("v", false, "enable compiler/VM trace logging")
	disasm   = flag.Bool("disasm", false, "print the disassembly of the compiled program instead of running it")
)

func main() {
	flag.Parse()

	stmts, ok := demos[*demoName]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown demo %q (choices: fib, loop, strings)\n", *demoName)
		os.Exit(1)
	}

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.TraceLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}

	prog, err := compiler.CompileWithLogger(stmts, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "compile error:", err)
		os.Exit(1)
	}

	if *disasm {
		listing, err := isa.Listing(prog.Code)
		if err != nil {
			fmt.Fprintln(os.Stderr, "disassemble error:", err)
			os.Exit(1)
		}
		fmt.Print(listing)
		return
	}

	opts := vm.DefaultOptions()
	opts.Log = log
	machine, err := vm.New(prog, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "vm.New error:", err)
		os.Exit(1)
	}
	if err := machine.Run(opts); err != nil {
		fmt.Fprintln(os.Stderr, "vm.Run error:", err)
		os.Exit(1)
	}
}

func ident(name string) ast.Ident { return ast.Ident{Name: name} }
func lit(v ast.Literal) ast.Lit   { return ast.Lit{Value: v} }

// demos maps a short name to a hand-built AST, standing in for what a
// parser would otherwise hand the compiler.
var demos = map[string][]ast.Stmt{
	"fib": {
		ast.ItemStmt{Item: ast.Function{
			Name:       "fib",
			Args:       []ast.Argument{{Name: "n", Type: ast.TypeNumber}},
			ReturnType: ast.TypeNumber,
			Body: []ast.Stmt{
				ast.If{
					Cond: ast.Infix{Op: ast.OpLt, Lhs: ident("n"), Rhs: lit(ast.Int(2))},
					Body: []ast.Stmt{ast.Return{Value: ident("n")}},
				},
				ast.FnReturn{Value: ast.Infix{
					Op: ast.OpAdd,
					Lhs: ast.FnNamedCall{Name: "fib", Args: []ast.Expr{
						ast.Infix{Op: ast.OpSub, Lhs: ident("n"), Rhs: lit(ast.Int(1))},
					}},
					Rhs: ast.FnNamedCall{Name: "fib", Args: []ast.Expr{
						ast.Infix{Op: ast.OpSub, Lhs: ident("n"), Rhs: lit(ast.Int(2))},
					}},
				}},
			},
		}},
		ast.ExprStmt{Value: ast.FnNamedCall{Name: "print", Args: []ast.Expr{
			ast.FnNamedCall{Name: "fib", Args: []ast.Expr{lit(ast.Int(14))}},
		}}},
	},
	"loop": {
		ast.Local{Name: "i", Type: ast.TypeNumber, Value: lit(ast.Int(0))},
		ast.While{
			Cond: ast.Infix{Op: ast.OpLt, Lhs: ident("i"), Rhs: lit(ast.Int(10))},
			Body: []ast.Stmt{
				ast.ExprStmt{Value: ast.Infix{Op: ast.OpAssign, Lhs: ident("i"),
					Rhs: ast.Infix{Op: ast.OpAdd, Lhs: ident("i"), Rhs: lit(ast.Int(1))}}},
			},
		},
		ast.ExprStmt{Value: ast.FnNamedCall{Name: "print", Args: []ast.Expr{ident("i")}}},
	},
	"strings": {
		ast.Local{Name: "i", Type: ast.TypeNumber, Value: lit(ast.Int(0))},
		ast.Local{Name: "s", Type: ast.TypeString, Value: lit(ast.Str(""))},
		ast.While{
			Cond: ast.Infix{Op: ast.OpLt, Lhs: ident("i"), Rhs: lit(ast.Int(3))},
			Body: []ast.Stmt{
				ast.ExprStmt{Value: ast.Infix{Op: ast.OpAssign, Lhs: ident("s"),
					Rhs: ast.Infix{Op: ast.OpAdd, Lhs: ident("s"), Rhs: lit(ast.Str("ab"))}}},
				ast.ExprStmt{Value: ast.Infix{Op: ast.OpAssign, Lhs: ident("i"),
					Rhs: ast.Infix{Op: ast.OpAdd, Lhs: ident("i"), Rhs: lit(ast.Int(1))}}},
			},
		},
		ast.ExprStmt{Value: ast.FnNamedCall{Name: "print", Args: []ast.Expr{ident("s")}}},
	},
}
