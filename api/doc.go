// Package emucore defines the contract between emulator cores and the
// hosts that drive them. A core ships a CoreFactory; everything else in
// this module (the coreif shell, the scanner, the save-state manager)
// works against these types without knowing which machine is being
// emulated.
package emucore
