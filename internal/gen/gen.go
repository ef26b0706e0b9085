// Package gen produces synthetic PLC error cases with ground-truth labels for
// testing and evaluation. Two base failures are modeled: an assignment to a
// CONSTANT variable (matiec compile error) and a code-generator crash on an
// empty POU body.
package gen

import (
	"fmt"

	"github.com/AlyonaCIA/AI-diagnostic/internal/schema"
)

// Case is one synthetic error with its expected classification.
type Case struct {
	LogText            string
	XMLContent         string
	ExpectedStage      schema.Stage
	ExpectedSeverity   schema.Severity
	ExpectedComplexity schema.Complexity
	ErrorType          string // "constant_error" or "code_generation"
}

// varPair names the source/target variables of a constant-assignment case.
type varPair struct {
	src, dst string
}

var varPairs = []varPair{
	{"InputSignal", "OutputSignal"},
	{"SensorValue", "ActuatorCommand"},
	{"Temperature", "SetPoint"},
	{"Pressure", "Relief"},
	{"Counter", "MaxCount"},
	{"Status", "State"},
	{"Flag", "Trigger"},
	{"SourceData", "TargetData"},
}

const constantErrorLogTemplate = `[17:05:55]: Building project...
[17:05:56]: Cannot build project.
stdout: Warning: PLC XML file doesn't follow XSD schema at line 61:
Element '{http://www.plcopen.org/xml/tc6_0201}data': Missing child element(s). Expected is one of ( {*}*, * ).Start build in /tmp/.tmpMngQvj/build
Generating SoftPLC IEC-61131 ST/IL/SFC code...
Collecting data types
Collecting POUs
Generate POU program0
Generate Config(s)
Compiling IEC Program into C code...
"/root/beremiz/matiec/iec2c" -f -l -p -I "/root/beremiz/matiec/lib" -T "/tmp/.tmpMngQvj/build" "/tmp/.tmpMngQvj/build/plc.st"
Warning: exited with status 1 (pid 187)
Warning: /tmp/.tmpMngQvj/build/plc.st:%d-4..%d-12: error: Assignment to CONSTANT variables is not allowed.
Warning: In section: PROGRAM program0
Warning: %04d: %s
Warning: 1 error(s) found. Bailing out!
Error: Error : IEC to C compiler returned 1
Error: PLC code generation failed !
`

const constantErrorXMLTemplate = `<project xmlns="http://www.plcopen.org/xml/tc6_0201">
  <fileHeader companyName="Unknown" productName="Unnamed" productVersion="1" creationDateTime="2023-09-14T08:06:45"/>
  <contentHeader name="PlainProject" modificationDateTime="2023-09-14T08:09:26">
    <coordinateInfo>
      <fbd><scaling x="0" y="0"/></fbd>
      <ld><scaling x="0" y="0"/></ld>
      <sfc><scaling x="0" y="0"/></sfc>
    </coordinateInfo>
  </contentHeader>
  <types>
    <dataTypes/>
    <pous>
      <pou name="program0" pouType="program">
        <interface>
          <localVars constant="true" retain="false" nonretain="false">
            <variable name="%s">
              <type><BOOL/></type>
              <documentation/>
            </variable>
            <variable name="%s">
              <type><BOOL/></type>
              <documentation/>
            </variable>
          </localVars>
        </interface>
        <body>
          <ST>
            <xhtml:p xmlns:xhtml="http://www.w3.org/1999/xhtml">%s := %s;</xhtml:p>
          </ST>
        </body>
        <documentation/>
      </pou>
    </pous>
  </types>
</project>
`

const codeGenErrorLog = `[18:16:53]: Building project...
[18:16:54]: Cannot build project.
stdout: Warning: PLC XML file doesn't follow XSD schema at line 43:
Element '{http://www.plcopen.org/xml/tc6_0201}data': Missing child element(s). Expected is one of ( {*}*, * ).Start build in /tmp/.tmpL3UKDb/build
Generating SoftPLC IEC-61131 ST/IL/SFC code...
Collecting data types
Collecting POUs
Generate POU program0

stderr: Traceback (most recent call last):
File "/root/beremiz/Beremiz_cli.py", line 130, in <module>
cli()
File "/root/beremiz/Beremiz_cli.py", line 110, in process_pipeline
ret = processor()
File "/root/beremiz/ProjectController.py", line 1749, in _Build
IECGenRes = self._Generate_SoftPLC()
File "/root/beremiz/PLCGenerator.py", line 959, in ComputeProgram
self.ParentGenerator.GeneratePouProgramInText(text.upper())
AttributeError: 'NoneType' object has no attribute 'upper'
`

const emptyProjectXMLTemplate = `<project xmlns="http://www.plcopen.org/xml/tc6_0201">
  <fileHeader companyName="Unknown" productName="Unnamed" productVersion="1" creationDateTime="2023-09-14T08:06:45"/>
  <contentHeader name="PlainProject" modificationDateTime="2023-09-14T08:09:26">
    <coordinateInfo>
      <fbd><scaling x="0" y="0"/></fbd>
      <ld><scaling x="0" y="0"/></ld>
      <sfc><scaling x="0" y="0"/></sfc>
    </coordinateInfo>
  </contentHeader>
  <types>
    <dataTypes/>
    <pous>
      <pou name="program0" pouType="program">
        <interface>
          <localVars constant="false" retain="false" nonretain="false"/>
        </interface>
        <body>
          <ST>
            <xhtml:p xmlns:xhtml="http://www.w3.org/1999/xhtml">%s</xhtml:p>
          </ST>
        </body>
        <documentation/>
      </pou>
    </pous>
  </types>
</project>
`

// ConstantErrors generates count constant-assignment cases with varying line
// numbers and variable names. Deterministic: the same count yields the same
// cases in the same order.
func ConstantErrors(count int) []Case {
	cases := make([]Case, 0, count)
	line := 20
	for i := 0; i < count; i++ {
		pair := varPairs[i%len(varPairs)]
		assignment := fmt.Sprintf("%s := %s;", pair.dst, pair.src)

		cases = append(cases, Case{
			LogText:            fmt.Sprintf(constantErrorLogTemplate, line, line, line, assignment),
			XMLContent:         fmt.Sprintf(constantErrorXMLTemplate, pair.src, pair.dst, pair.dst, pair.src),
			ExpectedStage:      schema.StageIECCompilation,
			ExpectedSeverity:   schema.SeverityBlocking,
			ExpectedComplexity: schema.ComplexityTrivial,
			ErrorType:          "constant_error",
		})
		line += 3
	}
	return cases
}

// CodeGenerationErrors generates count code-generator crash cases. The POU
// body alternates between empty and whitespace-only, both of which crash the
// generator the same way.
func CodeGenerationErrors(count int) []Case {
	cases := make([]Case, 0, count)
	for i := 0; i < count; i++ {
		content := ""
		if i%2 == 1 {
			content = "  "
		}
		cases = append(cases, Case{
			LogText:            codeGenErrorLog,
			XMLContent:         fmt.Sprintf(emptyProjectXMLTemplate, content),
			ExpectedStage:      schema.StageCodeGeneration,
			ExpectedSeverity:   schema.SeverityBlocking,
			ExpectedComplexity: schema.ComplexityTrivial,
			ErrorType:          "code_generation",
		})
	}
	return cases
}

// All generates both families back to back. Callers that want mixed ordering
// shuffle the result themselves.
func All(constantCount, codeGenCount int) []Case {
	cases := ConstantErrors(constantCount)
	return append(cases, CodeGenerationErrors(codeGenCount)...)
}
