package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/insteon/internal/protocol"
	"github.com/muurk/insteon/internal/ui"
)

// Build command flags
var (
	buildTo    string
	buildCmd1  string
	buildCmd2  string
	buildData  string
	buildCRC   string
	buildGroup int
)

func init() {
	buildCmd.PersistentFlags().StringVar(&buildCmd1, "cmd1", "", "Command byte 1, hex (required)")
	buildCmd.PersistentFlags().StringVar(&buildCmd2, "cmd2", "00", "Command byte 2, hex")

	for _, c := range []*cobra.Command{buildStandardCmd, buildExtendedCmd} {
		c.Flags().StringVar(&buildTo, "to", "", "Destination address AA.BB.CC (required)")
		_ = c.MarkFlagRequired("to")
	}
	buildExtendedCmd.Flags().StringVar(&buildData, "data", "", "User data, up to 14 hex bytes")
	buildExtendedCmd.Flags().StringVar(&buildCRC, "crc", "none", "Checksum to embed (none, crc1, crc2)")
	buildBroadcastCmd.Flags().IntVar(&buildGroup, "group", 1, "All-link group number (0-255)")

	buildCmd.AddCommand(buildStandardCmd)
	buildCmd.AddCommand(buildExtendedCmd)
	buildCmd.AddCommand(buildBroadcastCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(crcCmd)
}

// buildCmd groups the outbound message builders
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build an outbound PLM command",
	Long: `Build a command for the PowerLinc Modem and print it as hex.

The output can be written to the modem's serial port as is. On a terminal
a summary of the message is shown as well.`,
}

var buildStandardCmd = &cobra.Command{
	Use:     "standard",
	Short:   "Direct standard message",
	Example: `  insteon-msg build standard --to 1A.2B.3C --cmd1 11 --cmd2 FF`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, cmd1, cmd2, err := directArgs()
		if err != nil {
			return err
		}
		msg, err := protocol.MakeStandardMessage(defs, addr, cmd1, cmd2)
		if err != nil {
			return err
		}
		return printBuilt(cmd, msg, protocol.CRCNone)
	},
}

var buildExtendedCmd = &cobra.Command{
	Use:   "extended",
	Short: "Direct extended message with optional checksum",
	Example: `  # Read the operating flags of an i2cs device
  insteon-msg build extended --to 1A.2B.3C --cmd1 2E --cmd2 00 --data 01 --crc crc2`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, cmd1, cmd2, err := directArgs()
		if err != nil {
			return err
		}
		data, err := parseHex(buildData)
		if err != nil {
			return err
		}
		if len(data) > protocol.MaxUserData {
			return fmt.Errorf("--data holds %d bytes, at most %d allowed", len(data), protocol.MaxUserData)
		}
		crc, err := parseCRCKind(buildCRC)
		if err != nil {
			return err
		}
		msg, err := protocol.MakeExtendedMessage(defs, addr, cmd1, cmd2, data, crc)
		if err != nil {
			return err
		}
		return printBuilt(cmd, msg, crc)
	},
}

var buildBroadcastCmd = &cobra.Command{
	Use:     "broadcast",
	Short:   "All-link broadcast to a group",
	Example: `  insteon-msg build broadcast --group 3 --cmd1 13`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if buildGroup < 0 || buildGroup > 0xFF {
			return fmt.Errorf("--group %d out of range 0-255", buildGroup)
		}
		cmd1, cmd2, err := commandArgs()
		if err != nil {
			return err
		}
		msg, err := protocol.MakeBroadcastMessage(defs, byte(buildGroup), cmd1, cmd2)
		if err != nil {
			return err
		}
		return printBuilt(cmd, msg, protocol.CRCNone)
	},
}

func directArgs() (protocol.Address, byte, byte, error) {
	if buildTo == "" {
		return protocol.Address{}, 0, 0, fmt.Errorf("--to is required")
	}
	addr, err := protocol.ParseAddress(buildTo)
	if err != nil {
		return protocol.Address{}, 0, 0, err
	}
	cmd1, cmd2, err := commandArgs()
	return addr, cmd1, cmd2, err
}

func commandArgs() (byte, byte, error) {
	if buildCmd1 == "" {
		return 0, 0, fmt.Errorf("--cmd1 is required")
	}
	cmd1, err := parseByte("cmd1", buildCmd1)
	if err != nil {
		return 0, 0, err
	}
	cmd2, err := parseByte("cmd2", buildCmd2)
	return cmd1, cmd2, err
}

// parseByte reads one hex byte, with or without a 0x prefix
func parseByte(flag, s string) (byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid --%s %q: expected a hex byte", flag, s)
	}
	return byte(v), nil
}

func parseCRCKind(s string) (protocol.CRCKind, error) {
	for _, k := range []protocol.CRCKind{protocol.CRCNone, protocol.CRC1, protocol.CRC2} {
		if strings.EqualFold(s, k.String()) {
			return k, nil
		}
	}
	return protocol.CRCNone, fmt.Errorf("invalid --crc %q: expected none, crc1 or crc2", s)
}

// printBuilt writes the message hex, followed by a summary box on terminals
func printBuilt(cmd *cobra.Command, msg *protocol.Message, crc protocol.CRCKind) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, msg.Hex())

	if !ui.IsTerminal(os.Stdout) {
		return nil
	}

	result := ui.NewSuccessResult(msg.Name()).
		AddDetailf("Length", "%d bytes", msg.Len()).
		AddDetail("Type", msg.Type().String()).
		AddDetail("Quiet time", msg.QuietTime.String())
	if msg.IsExtended() {
		result.AddDetail("Checksum", crc.String())
	}
	fmt.Fprintln(out, result.Render())
	return nil
}

// crcCmd checks the checksums of an extended message
var crcCmd = &cobra.Command{
	Use:   "crc <hex>",
	Short: "Compute and verify the checksums of an extended message",
	Long: `Compute CRC-1 and CRC-2 for an extended message given as hex, and report
whether the message already carries a valid checksum.

Both modem-bound (0x62) and modem-sent (0x51, 0x62 reply) extended
messages are accepted.`,
	Example: `  insteon-msg crc "02 62 1A 2B 3C 1F 2E 00 01 00 00 00 00 00 00 00 00 00 00 00 85 17"`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runCRC,
}

func runCRC(cmd *cobra.Command, args []string) error {
	raw, err := parseHex(strings.Join(args, " "))
	if err != nil {
		return err
	}

	def := extendedDefinition(defs, raw)
	if def == nil {
		return fmt.Errorf("%d bytes do not match any extended message definition", len(raw))
	}
	msg, err := protocol.NewInboundMessage(def, raw)
	if err != nil {
		return err
	}

	crc1, err := msg.CRC()
	if err != nil {
		return err
	}
	crc2, err := msg.CRC2()
	if err != nil {
		return err
	}

	title := "No valid checksum"
	switch {
	case msg.HasValidCRC2():
		title = "Valid CRC-2"
	case msg.HasValidCRC():
		title = "Valid CRC-1"
	}

	result := ui.NewSuccessResult(title)
	if title == "No valid checksum" {
		result = ui.NewWarningResult(title)
	}
	fmt.Fprintln(cmd.OutOrStdout(), result.
		AddDetail("Message", def.Name).
		AddDetailf("CRC-1", "%02X (userData14)", crc1).
		AddDetailf("CRC-2", "%04X (userData13-14)", crc2).
		Render())
	return nil
}

// extendedDefinition finds a definition with a full user data block whose
// command and length match raw
func extendedDefinition(defs *protocol.Definitions, raw []byte) *protocol.Definition {
	if len(raw) < 2 || raw[0] != protocol.SyncByte {
		return nil
	}
	for _, def := range defs.All() {
		cmd, ok := def.Command()
		if !ok || cmd != raw[1] || def.Length() != len(raw) {
			continue
		}
		if _, ok := def.Field("userData14"); ok {
			return def
		}
	}
	return nil
}
