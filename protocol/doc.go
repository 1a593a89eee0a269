// Package protocol provides the wire layer of the Yamaha Remote Control
// Protocol (RCP) used by TF, CL/QL, DM and Rivage PM mixing consoles.
//
// It has no notion of connections or concurrency: it frames bytes into lines,
// renders commands and classifies inbound lines. The rcp package builds the
// correlation engine on top of it.
//
// # Wire format
//
// RCP is a line protocol over TCP (port 49280). Every line ends with LF.
// Commands are verb first:
//
//	get MIXER:Current/InCh/Fader/Level 0 0
//	set MIXER:Current/InCh/Fader/Level 0 0 -1000
//	set MIXER:Current/InCh/Label/Name 0 0 "CH 1"
//	ssrecall_ex scene_a 5
//
// The console answers each command, in order, with a reply or an error:
//
//	OK get MIXER:Current/InCh/Fader/Level 0 0 -1000
//	OK ssrecall_ex scene_a 5
//	ERROR set InvalidArgument
//
// and pushes changes made elsewhere (surface, other clients, scene recalls):
//
//	NOTIFY set MIXER:Current/InCh/Fader/Level 0 0 -1000 "-10.00"
//	NOTIFY sscurrent_ex scene_a 5
//
// Lines carry no request identifier. Replies are attributed to commands by
// their position in the stream.
//
// # Building commands
//
//	cmd, err := protocol.Set("MIXER:Current/InCh/Fader/Level", protocol.IntValue(-1000), 0, 0)
//	err = protocol.WriteCommand(conn, cmd)
//
// Construction validates the verb and operands and fails with
// *InvalidCommandError; encoding a constructed Command never fails.
//
// # Reading lines
//
//	lr := protocol.NewLineReader(conn, protocol.DefaultMaxLineLength)
//	g := protocol.DefaultGrammar()
//	for {
//	    raw, err := lr.ReadLine()
//	    if err != nil {
//	        return err // ErrLineTooLong, io.EOF, ...
//	    }
//	    line, err := g.Classify(string(raw))
//	    if err != nil {
//	        return err // *ParseError: drop the connection
//	    }
//	    switch line.Kind {
//	    case protocol.KindReply:
//	    case protocol.KindError:
//	    case protocol.KindNotification:
//	    }
//	}
//
// # Error Handling
//
// ShouldReconnect tells whether an error leaves the stream unusable:
// framing and grammar violations and I/O errors do, console errors and
// invalid commands don't.
package protocol
