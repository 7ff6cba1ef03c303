// Package command defines the two capabilities the queue is built on.
//
// A Command is a deferred unit of work. It is executed by an invoker, which
// drops it after execution unless IsLoop reports true. A command may carry a
// non-owning reference to a Receiver, the object it reports to through
// Action.
//
// # Ownership
//
// A command belongs to exactly one invoker once enqueued, and a receiver
// belongs to whatever registered it (usually a listener registry). Binding a
// receiver to a command never transfers ownership. Owners release what they
// drop through Dispose, which closes values implementing io.Closer.
//
// # Writing commands
//
// Embed Base to get the loop flag and receiver binding:
//
//	type Ping struct {
//	    command.Base
//	}
//
//	func (p *Ping) Execute() error {
//	    return p.Report("pong")
//	}
//
// Closures can be adapted with NewFunc, and receivers with ReceiverFunc.
package command
