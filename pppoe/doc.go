// Package pppoe implements the client-side PPPoE Discovery stage defined
// by RFC 2516, extended by RFC 4638 for MTU negotiation: the PADI/PADO/
// PADR/PADS exchange that locates an Access Concentrator, negotiates a
// session id, and hands a ready session handle to an external PPP stack.
//
// Once a session exists, PPPoE (see NewPPPoESession and Dial) carries
// PPPoE Session frames (ethertype 0x8864) over a Conn as a
// net.PacketConn. The raw socket mechanism itself is out of scope; see
// package rawsock for a concrete Conn and package lcp for a PPP stack
// that consumes a Context's SessionInfo.
package pppoe
