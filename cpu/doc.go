// Package cpu implements a reference 16-bit machine and its assembler.
//
// The machine has 64Ki words of memory and eleven 16-bit registers: eight
// general purpose registers (r0-r7), a flags register (fl), the stack
// pointer (sp) and the program counter (pc). Every instruction is one word,
// followed by an immediate word when its source operand is a constant.
//
// The assembler supports labels, equates, macros, character literals and
// compile-time $(...) expressions, and emits both the binary image and the
// 'name = address' symbol table consumed by the emulator view.
package cpu
