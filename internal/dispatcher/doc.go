// Package dispatcher builds commands by variant name and enqueues them.
//
// The dispatcher is a thin front for an invoker. It never executes anything;
// it constructs a command, binds the default receiver (when one is set) and
// hands the command to the invoker, which owns it from then on.
//
// # Variants
//
// A Catalog maps variant names to factories. DefaultCatalog registers the
// builtin variants "collision", "message" and "script":
//
//	inv := invoker.NewWithDefaults()
//	d := dispatcher.New(inv, dispatcher.WithReceiver(console))
//
//	d.Add("collision")      // hit id 0
//	d.Add("collision", 100) // hit id 100
//	d.Add("script", `cmd.report("tick")`, true)
//
//	err := inv.Update(ctx)
//
// Where the variant is known at compile time, Emit avoids the catalog:
//
//	c, err := dispatcher.Emit(d, func() *builtin.Collision {
//	    return builtin.NewCollision(7)
//	})
//
// The default receiver replaces any receiver a factory bound.
package dispatcher
