// Package compiler lowers an AST into a register-allocated isa.Program in
// a single pass: register allocation, constant folding, and forward-patched
// control flow.
package compiler

import (
	"rvm/ast"
	"rvm/isa"
	"rvm/value"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Compiler lowers one function body (or the top-level statement list) into
// its own Program. Nested function Programs are appended to the shared
// root Program's function table regardless of AST nesting depth (flat
// function table; see DESIGN.md), so Call/LoadF targets always resolve
// against the same root table the VM holds.
type Compiler struct {
	root *isa.Program
	prog *isa.Program
	env  *Env
	asm  *Assembler
	log  *logrus.Logger
}

// Compile lowers a top-level statement list into a root Program. The root
// always ends with Halt, regardless of whether the last statement was a
// Return.
func Compile(stmts []ast.Stmt) (*isa.Program, error) {
	return CompileWithLogger(stmts, discardLogger())
}

// CompileWithLogger is Compile with an explicit logrus.Logger for
// compile-time tracing (function registration, call compilation). Pass
// logrus.StandardLogger() or a configured logger to see trace output;
// CompileWithLogger(stmts, nil) is equivalent to Compile.
func CompileWithLogger(stmts []ast.Stmt, log *logrus.Logger) (*isa.Program, error) {
	if log == nil {
		log = discardLogger()
	}
	root := isa.New()
	c := &Compiler{root: root, prog: root, env: NewEnv(), asm: NewAssembler(), log: log}
	for _, s := range stmts {
		if err := c.compileStmt(s); err != nil {
			return nil, err
		}
	}
	c.asm.Halt()
	root.Code = c.asm.Code()
	if err := isa.CheckSize(root.Code); err != nil {
		return nil, err
	}
	return root, nil
}

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(discardWriter{})
	return l
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// --- statements --------------------------------------------------------

func (c *Compiler) compileBlock(stmts []ast.Stmt) error {
	for _, s := range stmts {
		if err := c.compileStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileStmt(s ast.Stmt) error {
	switch n := s.(type) {
	case ast.Local:
		return c.compileLocal(n)
	case ast.ExprStmt:
		return c.compileExprStmt(n)
	case ast.Return:
		return c.compileReturn(n.Value)
	case ast.FnReturn:
		return c.compileReturn(n.Value)
	case ast.If:
		return c.compileIf(n)
	case ast.While:
		return c.compileWhile(n)
	case ast.ItemStmt:
		return c.compileItem(n.Item)
	default:
		return errors.Errorf("compiler: unsupported statement %T", s)
	}
}

func (c *Compiler) compileLocal(n ast.Local) error {
	r, err := c.env.allocReg()
	if err != nil {
		return err
	}
	if isConstant(n.Value) {
		v, err := computeConstant(n.Value)
		if err != nil {
			return err
		}
		if err := c.emitLoadConstantValue(r, v); err != nil {
			return err
		}
		c.env.bindVar(n.Name, r, n.Type)
		return nil
	}
	actual, typ, err := c.compileExpr(r, n.Value)
	if err != nil {
		return err
	}
	if typ != n.Type {
		return errors.Wrapf(errTypeMismatch, "let %s: declared %s, got %s", n.Name, n.Type, typ)
	}
	if actual != r {
		c.asm.Move(r, actual)
	}
	c.env.bindVar(n.Name, r, n.Type)
	return nil
}

func (c *Compiler) compileExprStmt(n ast.ExprStmt) error {
	r, err := c.env.allocReg()
	if err != nil {
		return err
	}
	if _, _, err := c.compileExpr(r, n.Value); err != nil {
		return err
	}
	c.env.freeLastReg()
	return nil
}

func (c *Compiler) compileReturn(expr ast.Expr) error {
	r, err := c.env.allocReg()
	if err != nil {
		return err
	}
	actual, _, err := c.compileExpr(r, expr)
	if err != nil {
		return err
	}
	if actual != r {
		c.asm.Move(r, actual)
	}
	c.prog.Returned = true
	c.asm.Ret(r, 1)
	c.env.freeLastReg()
	return nil
}

func (c *Compiler) compileIf(n ast.If) error {
	r, err := c.env.allocReg()
	if err != nil {
		return err
	}
	actual, _, err := c.compileExpr(r, n.Cond)
	if err != nil {
		return err
	}
	if actual != r {
		c.asm.Move(r, actual)
	}
	patch := c.asm.JmpIfFalsePlaceholder(r)
	c.env.freeLastReg()
	if err := c.compileBlock(n.Body); err != nil {
		return err
	}
	c.asm.Patch(patch)
	return nil
}

func (c *Compiler) compileWhile(n ast.While) error {
	head := c.asm.Len()
	r, err := c.env.allocReg()
	if err != nil {
		return err
	}
	actual, _, err := c.compileExpr(r, n.Cond)
	if err != nil {
		return err
	}
	if actual != r {
		c.asm.Move(r, actual)
	}
	patch := c.asm.JmpIfFalsePlaceholder(r)
	c.env.freeLastReg()
	if err := c.compileBlock(n.Body); err != nil {
		return err
	}
	c.asm.Jmp(uint16(head))
	c.asm.Patch(patch)
	return nil
}

// --- expressions ---------------------------------------------------------

// compileExpr lowers expr so its result lands in reg, returning the
// register the value actually ended up in (which may differ for an
// already-bound identifier) and the expression's type tag.
func (c *Compiler) compileExpr(reg byte, e ast.Expr) (byte, ast.Type, error) {
	switch n := e.(type) {
	case ast.Lit:
		return c.compileLiteral(reg, n.Value)
	case ast.Ident:
		b, ok := c.env.lookupVar(n.Name)
		if !ok {
			return 0, ast.TypeNone, errors.Wrapf(errUnknownIdent, "%s", n.Name)
		}
		return b.r, b.typ, nil
	case ast.Prefix:
		if !isConstant(n) {
			return 0, ast.TypeNone, errors.Wrap(errUnsupportedExpr, "prefix over a non-constant operand")
		}
		v, err := computeConstant(n)
		if err != nil {
			return 0, ast.TypeNone, err
		}
		if err := c.emitLoadConstantValue(reg, v); err != nil {
			return 0, ast.TypeNone, err
		}
		return reg, typeOf(v), nil
	case ast.Infix:
		if isConstant(n) {
			v, err := computeConstant(n)
			if err != nil {
				return 0, ast.TypeNone, err
			}
			if err := c.emitLoadConstantValue(reg, v); err != nil {
				return 0, ast.TypeNone, err
			}
			return reg, typeOf(v), nil
		}
		return c.compileInfix(reg, n)
	case ast.FnNamedCall:
		return c.compileCall(reg, n)
	default:
		return 0, ast.TypeNone, errors.Wrapf(errUnsupportedExpr, "%T", e)
	}
}

func (c *Compiler) compileLiteral(reg byte, lit ast.Literal) (byte, ast.Type, error) {
	switch lit.Kind {
	case ast.LitInt:
		c.asm.Load(reg, lit.Int)
		return reg, ast.TypeNumber, nil
	case ast.LitFloat:
		c.asm.LoadFloat(reg, lit.Flt)
		return reg, ast.TypeNumber, nil
	case ast.LitBool:
		if lit.Bool {
			c.asm.LoadTrue(reg)
		} else {
			c.asm.LoadFalse(reg)
		}
		return reg, ast.TypeBool, nil
	case ast.LitString:
		id, err := c.prog.AddConstant(value.NewString(lit.Str))
		if err != nil {
			return 0, ast.TypeNone, err
		}
		c.asm.LoadConstant(reg, id)
		return reg, ast.TypeString, nil
	default:
		return 0, ast.TypeNone, errors.Errorf("compiler: unknown literal kind %d", lit.Kind)
	}
}

// emitLoadConstantValue emits whatever Load* opcode reproduces a folded
// compile-time value.
func (c *Compiler) emitLoadConstantValue(reg byte, v value.Value) error {
	switch v.Kind() {
	case value.Int:
		c.asm.Load(reg, v.AsInt())
	case value.Float:
		c.asm.LoadFloat(reg, v.AsFloat())
	case value.Bool:
		if v.AsBool() {
			c.asm.LoadTrue(reg)
		} else {
			c.asm.LoadFalse(reg)
		}
	case value.String:
		id, err := c.prog.AddConstant(v)
		if err != nil {
			return err
		}
		c.asm.LoadConstant(reg, id)
	default:
		return errors.Errorf("compiler: cannot emit a Load for %s", v.Kind())
	}
	return nil
}

func typeOf(v value.Value) ast.Type {
	switch v.Kind() {
	case value.Bool:
		return ast.TypeBool
	case value.String:
		return ast.TypeString
	default:
		return ast.TypeNumber
	}
}

func (c *Compiler) compileInfix(reg byte, n ast.Infix) (byte, ast.Type, error) {
	if n.Op == ast.OpAssign {
		ident, ok := n.Lhs.(ast.Ident)
		if !ok {
			return 0, ast.TypeNone, errAssignToNonIdent
		}
		b, ok := c.env.lookupVar(ident.Name)
		if !ok {
			return 0, ast.TypeNone, errors.Wrapf(errUnknownIdent, "%s", ident.Name)
		}
		// Compile into a fresh top-of-stack temporary rather than directly
		// into b.r: b.r can be lower than the allocator's cursor (other
		// locals declared after it are live above it), and an rhs that is
		// itself a call needs its own register to be the top of the stack
		// so its argument window (reg+1..reg+argc) doesn't land on those
		// live registers.
		tmp, err := c.env.allocReg()
		if err != nil {
			return 0, ast.TypeNone, err
		}
		actual, typ, err := c.compileExpr(tmp, n.Rhs)
		if err != nil {
			return 0, ast.TypeNone, err
		}
		c.env.freeLastReg()
		if typ != b.typ {
			return 0, ast.TypeNone, errors.Wrapf(errTypeMismatch, "assign to %s: declared %s, got %s", ident.Name, b.typ, typ)
		}
		if actual != b.r {
			c.asm.Move(b.r, actual)
		}
		return b.r, b.typ, nil
	}

	op, lhs, rhs := n.Op, n.Lhs, n.Rhs
	if op == ast.OpGt {
		op, lhs, rhs = ast.OpLt, n.Rhs, n.Lhs
	}

	lhsReg, lhsType, err := c.compileExpr(reg, lhs)
	if err != nil {
		return 0, ast.TypeNone, err
	}

	if isConstant(rhs) {
		v, err := computeConstant(rhs)
		if err == nil && v.Kind() == value.Int {
			if err := c.emitImmediateOp(op, reg, lhsReg, v.AsInt()); err == nil {
				return reg, resultType(op, lhsType), nil
			}
		}
	}

	tmp, err := c.env.allocReg()
	if err != nil {
		return 0, ast.TypeNone, err
	}
	rhsReg, rhsType, err := c.compileExpr(tmp, rhs)
	if err != nil {
		return 0, ast.TypeNone, err
	}
	c.env.freeLastReg()

	if lhsType != rhsType {
		return 0, ast.TypeNone, errors.Wrapf(errTypeMismatch, "%s %s %s", lhsType, op, rhsType)
	}

	if lhsType == ast.TypeString {
		if op != ast.OpAdd {
			return 0, ast.TypeNone, errors.Wrapf(errConcatNonAdd, "%s", op)
		}
		c.asm.Concat(reg, lhsReg, rhsReg)
		return reg, ast.TypeString, nil
	}

	if err := c.emitRegOp(op, reg, lhsReg, rhsReg); err != nil {
		return 0, ast.TypeNone, err
	}
	return reg, resultType(op, lhsType), nil
}

func resultType(op ast.Operator, operandType ast.Type) ast.Type {
	if op == ast.OpLt {
		return ast.TypeBool
	}
	return operandType
}

func (c *Compiler) emitRegOp(op ast.Operator, dst, x, y byte) error {
	switch op {
	case ast.OpAdd:
		c.asm.Add(dst, x, y)
	case ast.OpSub:
		c.asm.Sub(dst, x, y)
	case ast.OpMul:
		c.asm.Mul(dst, x, y)
	case ast.OpDiv:
		c.asm.Div(dst, x, y)
	case ast.OpLt:
		c.asm.Lt(dst, x, y)
	default:
		return errors.Wrapf(errUnfoldableOperator, "%s", op)
	}
	return nil
}

func (c *Compiler) emitImmediateOp(op ast.Operator, dst, x byte, lit int64) error {
	switch op {
	case ast.OpAdd:
		c.asm.Addl(dst, x, lit)
	case ast.OpSub:
		c.asm.Subl(dst, x, lit)
	case ast.OpMul:
		c.asm.Mull(dst, x, lit)
	case ast.OpDiv:
		c.asm.Divl(dst, x, lit)
	case ast.OpLt:
		c.asm.Ltl(dst, x, lit)
	default:
		return errors.Wrapf(errUnfoldableOperator, "%s", op)
	}
	return nil
}

func (c *Compiler) compileCall(reg byte, n ast.FnNamedCall) (byte, ast.Type, error) {
	switch n.Name {
	case "print":
		if len(n.Args) != 1 {
			return 0, ast.TypeNone, errors.New("compiler: print takes exactly one argument")
		}
		actual, _, err := c.compileExpr(reg, n.Args[0])
		if err != nil {
			return 0, ast.TypeNone, err
		}
		c.asm.Print(actual)
		return reg, ast.TypeNone, nil
	case "clock":
		if len(n.Args) != 0 {
			return 0, ast.TypeNone, errors.New("compiler: clock takes no arguments")
		}
		c.asm.Clock(reg)
		return reg, ast.TypeNumber, nil
	}

	fn, ok := c.env.lookupFunc(n.Name)
	if !ok {
		return 0, ast.TypeNone, errors.Wrapf(errUnknownFunc, "%s", n.Name)
	}
	if len(n.Args) != fn.argc {
		return 0, ast.TypeNone, errors.Errorf("compiler: %s expects %d arguments, got %d", n.Name, fn.argc, len(n.Args))
	}
	c.asm.LoadF(reg, fn.id)
	// Call's argument window is fixed by the bytecode contract: argument i
	// always lands at reg+1+i, not wherever the allocator's cursor happens
	// to sit. allocReg is still called to advance that cursor (and catch
	// register exhaustion) so a nested call compiled into argReg sees the
	// correct top-of-stack, but the destination register itself is the
	// computed address, never allocReg's return value.
	for i, arg := range n.Args {
		argReg := reg + 1 + byte(i)
		if _, err := c.env.allocReg(); err != nil {
			return 0, ast.TypeNone, err
		}
		actual, _, err := c.compileExpr(argReg, arg)
		if err != nil {
			return 0, ast.TypeNone, err
		}
		if actual != argReg {
			c.asm.Move(argReg, actual)
		}
	}
	for range n.Args {
		c.env.freeLastReg()
	}
	c.asm.Call(reg, byte(len(n.Args)), 1)
	c.log.WithField("func", n.Name).Trace("compiled call")
	return reg, fn.returnType, nil
}

// --- functions -----------------------------------------------------------

func (c *Compiler) compileItem(item ast.Item) error {
	fn, ok := item.(ast.Function)
	if !ok {
		return errors.Errorf("compiler: unsupported item %T", item)
	}
	return c.compileFunction(fn)
}

func (c *Compiler) compileFunction(fn ast.Function) error {
	id, err := c.root.ReserveFunction()
	if err != nil {
		return errors.Wrap(err, "too many functions")
	}

	binding := funcBinding{id: id, returnType: fn.ReturnType, argc: len(fn.Args)}
	// Both the enclosing scope and the new function's own scope see this
	// binding, since childEnv shares the funcs map by reference - this is
	// what lets fib call itself and lets later siblings see it too.
	c.env.bindFunc(fn.Name, binding)

	fnEnv := childEnv(c.env)
	for _, arg := range fn.Args {
		r, err := fnEnv.allocReg()
		if err != nil {
			return err
		}
		fnEnv.bindVar(arg.Name, r, arg.Type)
	}

	childProg := isa.New()
	childAsm := NewAssembler()
	child := &Compiler{root: c.root, prog: childProg, env: fnEnv, asm: childAsm, log: c.log}

	if err := child.compileBlock(fn.Body); err != nil {
		return err
	}
	if !childProg.Returned {
		childAsm.Ret(0, 0)
	}
	childProg.Code = childAsm.Code()
	if err := isa.CheckSize(childProg.Code); err != nil {
		return err
	}

	c.root.SetFunction(id, childProg)
	c.log.WithField("func", fn.Name).WithField("id", id).Debug("registered function")
	return nil
}
