package workspace

import (
	"strconv"
	"strings"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/file"
)

// offset converts a parser position into a byte offset. Positions are
// 1-based when no file set is supplied.
func offset(idx file.Idx) int { return int(idx) - 1 }

// findApps locates the array literal behind module.exports.apps.
func findApps(prog *ast.Program) *ast.ArrayLiteral {
	vars := make(map[string]*ast.ObjectLiteral)
	var exported *ast.ObjectLiteral

	for _, stmt := range prog.Body {
		switch s := stmt.(type) {
		case *ast.VariableStatement:
			collectBindings(s.List, vars)
		case *ast.LexicalDeclaration:
			collectBindings(s.List, vars)
		case *ast.ExpressionStatement:
			assign, ok := s.Expression.(*ast.AssignExpression)
			if !ok || !isModuleExports(assign.Left) {
				continue
			}
			switch rhs := assign.Right.(type) {
			case *ast.ObjectLiteral:
				exported = rhs
			case *ast.Identifier:
				exported = vars[rhs.Name.String()]
			}
		}
	}

	if exported == nil {
		return nil
	}
	arr, _ := property(exported, "apps").(*ast.ArrayLiteral)
	return arr
}

func collectBindings(list []*ast.Binding, vars map[string]*ast.ObjectLiteral) {
	for _, b := range list {
		id, ok := b.Target.(*ast.Identifier)
		if !ok {
			continue
		}
		if obj, ok := b.Initializer.(*ast.ObjectLiteral); ok {
			vars[id.Name.String()] = obj
		}
	}
}

func isModuleExports(expr ast.Expression) bool {
	dot, ok := expr.(*ast.DotExpression)
	if !ok || dot.Identifier.Name.String() != "exports" {
		return false
	}
	id, ok := dot.Left.(*ast.Identifier)
	return ok && id.Name.String() == "module"
}

// property returns the value of a non-computed key, or nil.
func property(obj *ast.ObjectLiteral, name string) ast.Expression {
	var found ast.Expression
	for _, prop := range obj.Value {
		kp, ok := prop.(*ast.PropertyKeyed)
		if !ok || kp.Computed {
			continue
		}
		if key, ok := kp.Key.(*ast.StringLiteral); ok && key.Value.String() == name {
			found = kp.Value
		}
	}
	return found
}

func decodeProcess(obj *ast.ObjectLiteral, p *Process) {
	p.Name = stringValue(property(obj, "name"))
	p.Cwd = stringValue(property(obj, "cwd"))
	p.Script = stringValue(property(obj, "script"))
	p.Args = stringValue(property(obj, "args"))

	env, ok := property(obj, "env").(*ast.ObjectLiteral)
	if !ok {
		return
	}
	p.NodeEnv = stringValue(property(env, "NODE_ENV"))
	p.Port = intValue(property(env, "PORT"))
}

// stringValue reads string literals, and arrays of them joined by spaces.
func stringValue(expr ast.Expression) string {
	switch v := expr.(type) {
	case *ast.StringLiteral:
		return v.Value.String()
	case *ast.ArrayLiteral:
		parts := make([]string, 0, len(v.Value))
		for _, e := range v.Value {
			parts = append(parts, stringValue(e))
		}
		return strings.Join(parts, " ")
	}
	return ""
}

func intValue(expr ast.Expression) int {
	switch v := expr.(type) {
	case *ast.NumberLiteral:
		switch n := v.Value.(type) {
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	case *ast.StringLiteral:
		n, err := strconv.Atoi(strings.TrimSpace(v.Value.String()))
		if err == nil {
			return n
		}
	}
	return 0
}
