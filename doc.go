// Package saturn is a cycle-scheduled Sega Saturn hardware core: dual
// SH-2 interpretation with an x86-64 JIT fast path, VDP1/VDP2 software
// and Vulkan hybrid-upscale rendering, SCSP audio, SMPC/peripheral and
// backup RAM emulation, wired together by a frame orchestrator.
//
// The package produces framebuffers and ring-buffered audio samples for
// a host application to consume; it never opens a window or an audio
// device itself. Embedding a host frontend, parsing disc images, and
// BIOS discovery are all left to the caller — see Orchestrator and
// DiscLoader.
package saturn
