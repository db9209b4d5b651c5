package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"
	"unicode"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/insteon/internal/dedup"
	"github.com/muurk/insteon/internal/logging"
	"github.com/muurk/insteon/internal/protocol"
	"github.com/muurk/insteon/internal/ui"
)

// Decode command flags
var (
	decodeHex   bool
	decodeChunk int
	decodeDedup bool
	decodeRaw   bool
	decodeHide  bool
)

func init() {
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(defsCmd)
	rootCmd.AddCommand(aliasCmd)
}

// decodeCmd parses a modem capture
var decodeCmd = &cobra.Command{
	Use:   "decode [file|-]",
	Short: "Decode a PLM serial capture",
	Long: `Decode a capture of bytes received from the PowerLinc Modem.

The input is read in chunks, as it would arrive from the serial port, and
every complete message is printed on its own line. Bytes that do not form a
message are skipped and the parser resynchronizes on the next sync byte.

With --dedup, the repeated traffic of all-link group transactions
(broadcast, cleanup and success report) is marked as duplicate.`,
	Example: `  # Decode a binary capture
  insteon-msg decode capture.bin

  # Decode hex text from stdin, marking duplicates
  echo "02 50 1A 2B 3C 00 00 01 CB 11 00" | insteon-msg decode --hex --dedup

  # Only show the first copy of each group message
  insteon-msg decode capture.bin --dedup --hide-duplicates`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDecode,
}

func init() {
	decodeCmd.Flags().BoolVar(&decodeHex, "hex", false, "Input is hex text rather than raw bytes")
	decodeCmd.Flags().IntVar(&decodeChunk, "chunk", 0, "Bytes per read (default from config)")
	decodeCmd.Flags().BoolVar(&decodeDedup, "dedup", false, "Mark duplicate group and broadcast messages")
	decodeCmd.Flags().BoolVar(&decodeRaw, "raw", false, "Show the raw bytes of each message")
	decodeCmd.Flags().BoolVar(&decodeHide, "hide-duplicates", false, "Do not print duplicates (implies --dedup)")
}

func runDecode(cmd *cobra.Command, args []string) error {
	name := "-"
	if len(args) > 0 {
		name = args[0]
	}

	src, err := openInput(cmd, name)
	if err != nil {
		return err
	}
	defer src.Close()

	var input io.Reader = src
	if decodeHex {
		text, err := io.ReadAll(src)
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		raw, err := parseHex(string(text))
		if err != nil {
			return err
		}
		input = bytes.NewReader(raw)
	}

	chunk := decodeChunk
	if chunk <= 0 {
		chunk = registry.Preferences.ReadChunkSize
	}

	var filter *dedup.Filter
	if decodeDedup || decodeHide {
		filter = dedup.NewFilter()
	}

	out := cmd.OutOrStdout()
	if ui.IsTerminal(os.Stdout) {
		fmt.Fprintln(out, ui.NewHeader("Decode", "insteon-msg "+strings.Join(os.Args[1:], " "),
			ui.Detail{Key: "Input", Value: inputName(name)},
			ui.Detail{Key: "Dedup", Value: onOff(filter != nil)},
		).Render())
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	reader := protocol.NewReader(input, protocol.NewFactory(defs), chunk)
	seen := make(map[protocol.Address]time.Time)
	duplicates := 0

	runErr := reader.Run(ctx, func(msg *protocol.Message) {
		dup := filter != nil && filter.IsDuplicate(msg)
		if dup {
			duplicates++
		}
		if from, err := msg.Address(protocol.FieldFromAddress); err == nil && !from.IsUnknown() {
			seen[from] = msg.Timestamp
		}
		if dup && decodeHide {
			return
		}
		fmt.Fprintln(out, ui.FormatMessage(msg, ui.MessageOptions{
			Nickname:  registry.Nickname,
			Duplicate: dup,
			ShowRaw:   decodeRaw,
		}))
	})
	if runErr != nil && ctx.Err() == nil {
		return fmt.Errorf("decode failed: %w", runErr)
	}

	if err := rememberDevices(seen); err != nil {
		logging.Warn("Failed to update device registry", zap.Error(err))
	}

	result := ui.NewSuccessResult(fmt.Sprintf("Decoded %d messages", reader.Messages))
	if reader.FramingErrors > 0 {
		result = ui.NewWarningResult(fmt.Sprintf("Decoded %d messages with framing errors", reader.Messages))
	}
	result.AddDetailf("Bytes", "%d", reader.BytesRead).
		AddDetailf("Messages", "%d", reader.Messages).
		AddDetailf("Framing errors", "%d", reader.FramingErrors).
		AddDetailf("Devices", "%d", len(seen))
	if filter != nil {
		result.AddDetailf("Duplicates", "%d", duplicates)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), result.Render())

	return nil
}

// rememberDevices records when nicknamed devices were last heard from.
// Unknown senders are not added to the registry.
func rememberDevices(seen map[protocol.Address]time.Time) error {
	changed := false
	for addr, ts := range seen {
		if registry.GetDevice(addr.String()) == nil {
			continue
		}
		if err := registry.UpdateDeviceLastSeen(addr.String(), ts); err != nil {
			return err
		}
		changed = true
	}
	if !changed {
		return nil
	}
	return saveRegistry()
}

func openInput(cmd *cobra.Command, name string) (io.ReadCloser, error) {
	if name == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture: %w", err)
	}
	return f, nil
}

func inputName(name string) string {
	if name == "-" {
		return "stdin"
	}
	return name
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// parseHex decodes hex text, ignoring separators, 0x prefixes and # comments
func parseHex(text string) ([]byte, error) {
	var digits strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		for _, tok := range strings.FieldsFunc(line, isHexSeparator) {
			tok = strings.TrimPrefix(strings.TrimPrefix(tok, "0x"), "0X")
			digits.WriteString(tok)
		}
	}

	raw, err := hex.DecodeString(digits.String())
	if err != nil {
		return nil, fmt.Errorf("invalid hex input: %w", err)
	}
	return raw, nil
}

func isHexSeparator(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune(",:-.", r)
}

// defsCmd lists message definitions
var defsCmd = &cobra.Command{
	Use:   "defs [name]",
	Short: "List message definitions",
	Long: `List the message layouts known to the parser.

Without arguments every definition is listed in lookup order. With a name,
the full field layout of that definition is shown.`,
	Example: `  # List all definitions
  insteon-msg defs

  # Only messages sent by the modem
  insteon-msg defs --direction FromModem

  # Show the layout of one message
  insteon-msg defs ExtendedMessageReceived`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDefs,
}

var defsDirection string

func init() {
	defsCmd.Flags().StringVar(&defsDirection, "direction", "", "Only list FromModem or ToModem definitions")
}

func runDefs(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		def, ok := defs.Lookup(args[0])
		if !ok {
			return fmt.Errorf("no message definition named %q (see 'insteon-msg defs')", args[0])
		}
		fmt.Fprintln(out, ui.FormatDefinition(def))
		return nil
	}

	list := defs.All()
	if defsDirection != "" {
		dir, err := protocol.ParseDirection(defsDirection)
		if err != nil {
			return err
		}
		filtered := list[:0]
		for _, def := range list {
			if def.Direction == dir {
				filtered = append(filtered, def)
			}
		}
		list = filtered
	}

	fmt.Fprintln(out, ui.FormatDefinitionList(list))
	return nil
}

// aliasCmd stores a device nickname
var aliasCmd = &cobra.Command{
	Use:   "alias <address> <nickname>",
	Short: "Give a device a nickname",
	Long: `Store a nickname for an Insteon device address.

Nicknames are shown next to addresses in decoded output. An empty nickname
removes the alias.`,
	Example: `  insteon-msg alias 1A.2B.3C "Hall Keypad"`,
	Args:    cobra.ExactArgs(2),
	RunE:    runAlias,
}

func runAlias(cmd *cobra.Command, args []string) error {
	addr, err := protocol.ParseAddress(args[0])
	if err != nil {
		return err
	}
	if err := registry.SetDeviceNickname(addr.String(), args[1]); err != nil {
		return err
	}
	if err := saveRegistry(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), ui.NewSuccessResult("Nickname saved").
		AddDetail("Address", addr.String()).
		AddDetail("Nickname", args[1]).
		Render())
	return nil
}
