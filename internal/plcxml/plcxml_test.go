package plcxml

import (
	"errors"
	"strings"
	"testing"
)

const projectXML = `<project xmlns="http://www.plcopen.org/xml/tc6_0201">
  <types>
    <dataTypes/>
    <pous>
      <pou name="program0" pouType="program">
        <interface>
          <localVars constant="true">
            <variable name="InputSignal">
              <type><BOOL/></type>
            </variable>
          </localVars>
        </interface>
        <body>
          <ST>
            <xhtml:p xmlns:xhtml="http://www.w3.org/1999/xhtml">OutputSignal := InputSignal;</xhtml:p>
          </ST>
        </body>
      </pou>
    </pous>
  </types>
</project>`

func TestLocate_FindsPOUSubtree(t *testing.T) {
	got, err := Locate(projectXML, "program0")
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if !strings.Contains(got, `program0`) {
		t.Errorf("context does not mention the POU name:\n%s", got)
	}
	// Nested structure must survive serialization.
	for _, want := range []string{"<interface>", "<localVars", `name="InputSignal"`, "<ST>", "OutputSignal := InputSignal;"} {
		if !strings.Contains(got, want) {
			t.Errorf("context missing %q:\n%s", want, got)
		}
	}
	// Only the POU subtree, not the surrounding project skeleton.
	if strings.Contains(got, "<pous>") || strings.Contains(got, "<project") {
		t.Errorf("context should be scoped to the pou element:\n%s", got)
	}
}

func TestLocate_AbsentPOUReturnsSentinel(t *testing.T) {
	xml := `<project xmlns="http://www.plcopen.org/xml/tc6_0201">
  <types><pous><pou name="other" pouType="program"/></pous></types>
</project>`
	got, err := Locate(xml, "program0")
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if got != NotFoundSentinel {
		t.Errorf("got %q, want the not-found sentinel", got)
	}
}

func TestLocate_MalformedXML(t *testing.T) {
	_, err := Locate("<project><unclosed>", "program0")
	if err == nil {
		t.Fatal("expected an error for malformed XML")
	}
	if !errors.Is(err, ErrInvalidProjectFormat) {
		t.Errorf("error %v is not ErrInvalidProjectFormat", err)
	}
}

func TestLocate_EmptyDocument(t *testing.T) {
	_, err := Locate("", "program0")
	if !errors.Is(err, ErrInvalidProjectFormat) {
		t.Errorf("error %v is not ErrInvalidProjectFormat", err)
	}
}

func TestLocate_NamespaceFreeDocument(t *testing.T) {
	xml := `<project><types><pous><pou name="program0"><body/></pou></pous></types></project>`
	got, err := Locate(xml, "program0")
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if !strings.Contains(got, `name="program0"`) {
		t.Errorf("context missing POU: %q", got)
	}
}
