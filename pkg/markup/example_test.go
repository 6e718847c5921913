package markup_test

import (
	"fmt"
	"os"
	"strings"

	"github.com/matzehuels/definekit/pkg/define"
	"github.com/matzehuels/definekit/pkg/markup"
)

func ExampleBind() {
	const doc = `<ODM xmlns="http://www.cdisc.org/ns/odm/v1.3" xmlns:def="http://www.cdisc.org/ns/def/v2.1">
  <Study OID="ST.X"><MetaDataVersion OID="MDV.X">
    <ItemDef OID="IT.DM.AGE" Name="AGE" DataType="integer"/>
    <ItemGroupDef OID="IG.DM" Name="DM"><ItemRef ItemOID="IT.DM.AGE" Mandatory="No"/></ItemGroupDef>
  </MetaDataVersion></Study>
</ODM>`

	m, diags, err := markup.Bind(strings.NewReader(doc))
	if err != nil {
		fmt.Println(err)
		return
	}
	v, _ := m.Variables.Get(define.VariableKey{Dataset: "IG.DM", OID: "IT.DM.AGE"})
	fmt.Println(len(diags), v.Name, v.DataType, v.Mandatory)
	// Output: 0 AGE integer No
}

func ExampleDocument_Render() {
	root := markup.Elem("CodeList", "OID", "CL.NY", "Name", "No Yes", "def:StandardOID", "")
	root.Add(
		markup.Elem("EnumeratedItem", "CodedValue", "N"),
		markup.Elem("Description").Add(markup.Elem("TranslatedText", "xml:lang", "en").WithText("Yes & No")),
	)
	doc := &markup.Document{Root: root}
	_ = doc.Render(os.Stdout)
	// Output:
	// <?xml version="1.0" encoding="UTF-8"?>
	// <CodeList OID="CL.NY" Name="No Yes">
	//   <EnumeratedItem CodedValue="N"/>
	//   <Description>
	//     <TranslatedText xml:lang="en">Yes &amp; No</TranslatedText>
	//   </Description>
	// </CodeList>
}
