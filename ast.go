package main

import (
	"fmt"
	"strings"
)

// NodeKind represents different types of AST nodes
type NodeKind string

const (
	NodeProgram    NodeKind = "NodeProgram"
	NodeBlock      NodeKind = "NodeBlock"
	NodeAssign     NodeKind = "NodeAssign"
	NodeIf         NodeKind = "NodeIf"
	NodeRepeat     NodeKind = "NodeRepeat"
	NodeForever    NodeKind = "NodeForever"
	NodeFuncDef    NodeKind = "NodeFuncDef"
	NodeCall       NodeKind = "NodeCall"
	NodeMethodCall NodeKind = "NodeMethodCall"
	NodeBinary     NodeKind = "NodeBinary"
	NodeUnary      NodeKind = "NodeUnary"
	NodeInteger    NodeKind = "NodeInteger"
	NodeString     NodeKind = "NodeString"
	NodeIdent      NodeKind = "NodeIdent"
)

// Node is one AST node. The tree is a closed tagged variant: exactly the
// fields for the node's Kind are meaningful, everything else stays zero.
// Each node owns its Children exclusively.
type Node struct {
	Kind NodeKind
	Line int
	Col  int

	// NodeIdent, NodeAssign (destination), NodeFuncDef, NodeCall: name.
	// NodeMethodCall: method name ("on", "off", "coast").
	Name string
	// NodeMethodCall: receiver port letter ("A", "B", "C").
	// NodeString: literal value.
	Str string
	// NodeInteger:
	Int int64
	// NodeBinary ("+","-","*","/","%","<",">","<=",">=","==","!=","and","or"),
	// NodeUnary ("-","not"):
	Op string
	// NodeFuncDef: parameter names in declaration order (nil for zero-arity).
	Params []string

	// Children layout by kind:
	//   NodeProgram/NodeBlock: statements
	//   NodeAssign:            [value]
	//   NodeIf:                [cond, thenBlock] or [cond, thenBlock, elseBlock]
	//   NodeRepeat:            [count, block]
	//   NodeForever:           [block]
	//   NodeFuncDef:           [block]
	//   NodeCall/NodeMethodCall: arguments
	//   NodeBinary:            [left, right]
	//   NodeUnary:             [operand]
	Children []*Node

	// Resolution metadata, attached by the symbol resolver.
	// Slot: dataspace slot of a NodeIdent or NodeAssign destination.
	Slot int
	// Fn: user function bound to a NodeCall (nil when Builtin is set).
	Fn *Function
	// Builtin: catalog entry bound to a NodeCall.
	Builtin *Builtin
}

func newNode(kind NodeKind, tok Token) *Node {
	return &Node{Kind: kind, Line: tok.Line, Col: tok.Col, Slot: -1}
}

// ToSExpr converts an AST node to s-expression string representation,
// used by the Markdown corpus assertions.
func ToSExpr(node *Node) string {
	switch node.Kind {
	case NodeInteger:
		return fmt.Sprintf("(integer %d)", node.Int)
	case NodeString:
		return fmt.Sprintf("(string %q)", node.Str)
	case NodeIdent:
		return fmt.Sprintf("(ident %q)", node.Name)
	case NodeBinary:
		return fmt.Sprintf("(binary %q %s %s)", node.Op, ToSExpr(node.Children[0]), ToSExpr(node.Children[1]))
	case NodeUnary:
		return fmt.Sprintf("(unary %q %s)", node.Op, ToSExpr(node.Children[0]))
	case NodeAssign:
		return fmt.Sprintf("(assign %q %s)", node.Name, ToSExpr(node.Children[0]))
	case NodeCall:
		parts := []string{fmt.Sprintf("(call %q", node.Name)}
		for _, arg := range node.Children {
			parts = append(parts, ToSExpr(arg))
		}
		return strings.Join(parts, " ") + ")"
	case NodeMethodCall:
		parts := []string{fmt.Sprintf("(method %q %q", node.Str, node.Name)}
		for _, arg := range node.Children {
			parts = append(parts, ToSExpr(arg))
		}
		return strings.Join(parts, " ") + ")"
	case NodeIf:
		result := "(if " + ToSExpr(node.Children[0]) + " " + ToSExpr(node.Children[1])
		if len(node.Children) == 3 {
			result += " " + ToSExpr(node.Children[2])
		}
		return result + ")"
	case NodeRepeat:
		return "(repeat " + ToSExpr(node.Children[0]) + " " + ToSExpr(node.Children[1]) + ")"
	case NodeForever:
		return "(forever " + ToSExpr(node.Children[0]) + ")"
	case NodeFuncDef:
		params := ""
		for _, p := range node.Params {
			params += fmt.Sprintf(" %q", p)
		}
		return fmt.Sprintf("(def %q (params%s) %s)", node.Name, params, ToSExpr(node.Children[0]))
	case NodeProgram, NodeBlock:
		label := "block"
		if node.Kind == NodeProgram {
			label = "program"
		}
		result := "(" + label
		for _, child := range node.Children {
			result += " " + ToSExpr(child)
		}
		return result + ")"
	default:
		return fmt.Sprintf("UNKNOWN_NODE_KIND_%s", node.Kind)
	}
}
