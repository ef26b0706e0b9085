// Package plcxml locates a named POU (Program Organizational Unit) inside a
// PLCopen XML project and serializes its subtree as diagnostic context.
package plcxml

import (
	"errors"
	"fmt"

	"github.com/beevik/etree"
)

// ErrInvalidProjectFormat reports that the submitted project XML is not
// well-formed. Callers at the request boundary catch it and continue with a
// "context missing" sentinel instead of failing the request.
var ErrInvalidProjectFormat = errors.New("plcxml: invalid PLC XML project format")

// NotFoundSentinel is returned when the project contains no POU with the
// requested name. Absence is a valid outcome, not an error: downstream
// consumers treat it as "no context available".
const NotFoundSentinel = "Context not found for the specified POU."

// Locate parses the project XML and returns the serialized subtree of the POU
// whose name attribute equals unitName. PLCopen projects usually declare the
// tc6_0201 default namespace; matching is on the local element name, so
// prefixed, default-namespaced, and namespace-free documents all work.
func Locate(xml string, unitName string) (string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(xml); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidProjectFormat, err)
	}
	root := doc.Root()
	if root == nil {
		return "", fmt.Errorf("%w: document has no root element", ErrInvalidProjectFormat)
	}

	pou := findPOU(root, unitName)
	if pou == nil {
		return NotFoundSentinel, nil
	}

	sub := etree.NewDocument()
	sub.SetRoot(pou.Copy())
	out, err := sub.WriteToString()
	if err != nil {
		return "", fmt.Errorf("plcxml: serialize POU %q: %w", unitName, err)
	}
	return out, nil
}

// findPOU walks the tree depth-first for the first pou element whose name
// attribute equals unitName.
func findPOU(el *etree.Element, unitName string) *etree.Element {
	if el.Tag == "pou" && el.SelectAttrValue("name", "") == unitName {
		return el
	}
	for _, child := range el.ChildElements() {
		if found := findPOU(child, unitName); found != nil {
			return found
		}
	}
	return nil
}
