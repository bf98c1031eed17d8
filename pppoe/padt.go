package pppoe

// DefaultPADTSender builds a PADTSender that encodes and transmits a PADT
// frame over conn, addressed to ctx's peer, carrying the negotiated
// session id. This is the default implementation of the collaborator
// spec.md §4.F calls "send_padt(context, reason_string)", used only by
// the kill-session shortcut in Discover.
func DefaultPADTSender(conn Conn) PADTSender {
	return func(ctx *Context, reason string) error {
		f := &Frame{
			DstMAC:    ctx.PeerMAC,
			SrcMAC:    ctx.MyMAC,
			Code:      CodePADT,
			SessionID: ctx.SessionID,
		}
		raw, err := f.Encode()
		if err != nil {
			return err
		}
		ctx.Logger.Info().Str("reason", reason).Msg("sending PADT packet")
		return conn.Send(raw)
	}
}
