// Package commsdsl validates binary protocol definitions written in the
// CommsDSL XML schema language and exposes the resolved model: fields,
// messages, interfaces, frames and the namespaces and schemas that hold
// them.
//
// Documents are fed to a Builder in order. Build runs the protocol wide
// checks and returns a read-only Protocol:
//
//	b := commsdsl.NewBuilder(commsdsl.NewOptions())
//	if err := b.Parse(r, "proto.xml"); err != nil {
//		return err
//	}
//	p, err := b.Build()
//
// Errors are returned as an errors.List of diagnostics carrying the
// document and line they were found at. Warnings only reach the log.
package commsdsl
