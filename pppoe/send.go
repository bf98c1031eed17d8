package pppoe

// sendPADI encodes and transmits a PADI packet (spec.md §4.D step 2). The
// Service-Name tag is emitted empty for "any", verbatim for a configured
// filter, or omitted entirely when ctx.ServiceName was built with
// OmitServiceName (spec.md §3, §9 "Sentinel values").
func sendPADI(ctx *Context, conn Conn) error {
	f := &Frame{
		DstMAC:    BroadcastMAC[:],
		SrcMAC:    ctx.MyMAC,
		Code:      CodePADI,
		SessionID: 0,
	}

	if !ctx.ServiceName.omit {
		f.Tags = append(f.Tags, NewTagString(TagTypeServiceName, ctx.ServiceName.value))
	}
	if len(ctx.HostUniq) > 0 {
		f.Tags = append(f.Tags, NewTagBytes(TagTypeHostUniq, ctx.HostUniq))
	}
	if requestedMRU(ctx) > eth1492MTU {
		f.Tags = append(f.Tags, NewTagUint16(TagTypePPPMaxPayload, requestedMRU(ctx)))
	}

	raw, err := f.Encode()
	if err != nil {
		return err
	}
	ctx.Logger.Debug().Msg("sending PADI")
	return conn.Send(raw)
}

// sendPADR encodes and transmits a PADR packet (spec.md §4.D step 2 of the
// PADR/PADS phase). Unlike PADI, the Service-Name tag is always present
// (possibly empty) per spec.md §4.D; the AC-Cookie and Relay-Session-Id
// captured from the accepted PADO are echoed back verbatim.
func sendPADR(ctx *Context, conn Conn) error {
	f := &Frame{
		DstMAC:    ctx.PeerMAC,
		SrcMAC:    ctx.MyMAC,
		Code:      CodePADR,
		SessionID: 0,
	}

	f.Tags = append(f.Tags, NewTagString(TagTypeServiceName, ctx.ServiceName.value))
	if len(ctx.HostUniq) > 0 {
		f.Tags = append(f.Tags, NewTagBytes(TagTypeHostUniq, ctx.HostUniq))
	}
	if ctx.Cookie != nil {
		f.Tags = append(f.Tags, NewTagBytes(ctx.Cookie.Type(), ctx.Cookie.Value()))
	}
	if ctx.RelayID != nil {
		f.Tags = append(f.Tags, NewTagBytes(ctx.RelayID.Type(), ctx.RelayID.Value()))
	}
	if requestedMRU(ctx) > eth1492MTU {
		f.Tags = append(f.Tags, NewTagUint16(TagTypePPPMaxPayload, requestedMRU(ctx)))
	}

	raw, err := f.Encode()
	if err != nil {
		return err
	}
	ctx.Logger.Debug().Msg("sending PADR")
	return conn.Send(raw)
}

// requestedMRU returns the MRU the embedded PPP stack would like to
// request, or 0 if no MRUSink is attached (in which case no
// PPP-Max-Payload tag is ever emitted).
func requestedMRU(ctx *Context) uint16 {
	if ctx.MRUSink == nil {
		return 0
	}
	return ctx.MRUSink.RequestedMRU()
}
