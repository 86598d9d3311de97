// Package core defines the chain-agnostic vocabulary of the messaging layer: the canonical
// message and checkpoint types, the capability interfaces chain adapters implement, and the
// deterministic ordering applied to raw chain events before they reach an orchestrator.
package core
