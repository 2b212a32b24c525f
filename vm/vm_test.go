package vm

import (
	"io"
	"os"
	"testing"

	"rvm/ast"
	"rvm/compiler"
	"rvm/isa"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

func captureStdout(t *testing.T, run func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	assert(t, err == nil, "failed to create pipe: %v", err)
	os.Stdout = w
	run()
	w.Close()
	os.Stdout = old
	out, err := io.ReadAll(r)
	assert(t, err == nil, "failed to read pipe: %v", err)
	return string(out)
}

func runSource(t *testing.T, stmts []ast.Stmt) string {
	t.Helper()
	prog, err := compiler.Compile(stmts)
	assert(t, err == nil, "compile error: %v", err)
	return captureStdout(t, func() {
		machine, err := New(prog, DefaultOptions())
		assert(t, err == nil, "vm.New error: %v", err)
		err = machine.Run(DefaultOptions())
		assert(t, err == nil, "vm.Run error: %v", err)
	})
}

func ident(name string) ast.Ident { return ast.Ident{Name: name} }
func lit(v ast.Literal) ast.Lit   { return ast.Lit{Value: v} }

// Scenario 1: `let i: number = 0; while (i < 10) { i = i + 1; } print(i);`
func TestWhileLoopCounter(t *testing.T) {
	stmts := []ast.Stmt{
		ast.Local{Name: "i", Type: ast.TypeNumber, Value: lit(ast.Int(0))},
		ast.While{
			Cond: ast.Infix{Op: ast.OpLt, Lhs: ident("i"), Rhs: lit(ast.Int(10))},
			Body: []ast.Stmt{
				ast.ExprStmt{Value: ast.Infix{Op: ast.OpAssign, Lhs: ident("i"),
					Rhs: ast.Infix{Op: ast.OpAdd, Lhs: ident("i"), Rhs: lit(ast.Int(1))}}},
			},
		},
		ast.ExprStmt{Value: ast.FnNamedCall{Name: "print", Args: []ast.Expr{ident("i")}}},
	}
	out := runSource(t, stmts)
	assert(t, out == "[Print] val: (Int(10))\n", "unexpected output: %q", out)
}

// Scenario 2: recursive fibonacci.
// fn fib(n: number) -> number { if (n < 2) { return n } fib(n - 1) + fib(n - 2) }
// print(fib(14));
func TestRecursiveFibonacci(t *testing.T) {
	fib := ast.Function{
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
	}
	stmts := []ast.Stmt{
		ast.ItemStmt{Item: fib},
		ast.ExprStmt{Value: ast.FnNamedCall{Name: "print", Args: []ast.Expr{
			ast.FnNamedCall{Name: "fib", Args: []ast.Expr{lit(ast.Int(14))}},
		}}},
	}
	out := runSource(t, stmts)
	assert(t, out == "[Print] val: (Int(377))\n", "unexpected output: %q", out)
}

// Scenario 3: `let a: number = 3; let b: number = 2; print(a / b);`
func TestMixedNumericCoercion(t *testing.T) {
	stmts := []ast.Stmt{
		ast.Local{Name: "a", Type: ast.TypeNumber, Value: lit(ast.Int(3))},
		ast.Local{Name: "b", Type: ast.TypeNumber, Value: lit(ast.Int(2))},
		ast.ExprStmt{Value: ast.FnNamedCall{Name: "print", Args: []ast.Expr{
			ast.Infix{Op: ast.OpDiv, Lhs: ident("a"), Rhs: ident("b")},
		}}},
	}
	out := runSource(t, stmts)
	assert(t, out == "[Print] val: (Float(1.5))\n", "unexpected output: %q", out)
}

// Scenario 4: string concatenation from a loop.
func TestStringConcatLoop(t *testing.T) {
	stmts := []ast.Stmt{
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
	}
	out := runSource(t, stmts)
	assert(t, out == `[Print] val: (String("ababab"))`+"\n", "unexpected output: %q", out)
}

// Scenario 5: constant folding preserves semantics: `print(1 + 2 * 3);`
func TestConstantFolding(t *testing.T) {
	stmts := []ast.Stmt{
		ast.ExprStmt{Value: ast.FnNamedCall{Name: "print", Args: []ast.Expr{
			ast.Infix{Op: ast.OpAdd, Lhs: lit(ast.Int(1)), Rhs: ast.Infix{Op: ast.OpMul, Lhs: lit(ast.Int(2)), Rhs: lit(ast.Int(3))}},
		}}},
	}
	prog, err := compiler.Compile(stmts)
	assert(t, err == nil, "compile error: %v", err)
	// The folder must have collapsed the whole expression to a single Load.
	lines, err := isa.Disassemble(prog.Code)
	assert(t, err == nil, "disassemble error: %v", err)
	assert(t, len(lines) == 3, "expected Load, Print, Halt - got %d lines", len(lines))

	out := runSource(t, stmts)
	assert(t, out == "[Print] val: (Int(7))\n", "unexpected output: %q", out)
}

// Scenario 6: nested function call with argument passing.
func TestNestedFunctionCall(t *testing.T) {
	add := ast.Function{
		Name:       "add",
		Args:       []ast.Argument{{Name: "a", Type: ast.TypeNumber}, {Name: "b", Type: ast.TypeNumber}},
		ReturnType: ast.TypeNumber,
		Body: []ast.Stmt{
			ast.FnReturn{Value: ast.Infix{Op: ast.OpAdd, Lhs: ident("a"), Rhs: ident("b")}},
		},
	}
	stmts := []ast.Stmt{
		ast.ItemStmt{Item: add},
		ast.ExprStmt{Value: ast.FnNamedCall{Name: "print", Args: []ast.Expr{
			ast.FnNamedCall{Name: "add", Args: []ast.Expr{lit(ast.Int(40)), lit(ast.Int(2))}},
		}}},
	}
	out := runSource(t, stmts)
	assert(t, out == "[Print] val: (Int(42))\n", "unexpected output: %q", out)
}

func TestIfFalseConditionPrintsNothing(t *testing.T) {
	stmts := []ast.Stmt{
		ast.If{
			Cond: lit(ast.Bool(false)),
			Body: []ast.Stmt{
				ast.ExprStmt{Value: ast.FnNamedCall{Name: "print", Args: []ast.Expr{lit(ast.Int(1))}}},
			},
		},
	}
	out := runSource(t, stmts)
	assert(t, out == "", "expected no output, got %q", out)
}
