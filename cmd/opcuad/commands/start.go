package commands

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ua-stack/opcua/internal/config"
	"github.com/ua-stack/opcua/internal/logger"
	"github.com/ua-stack/opcua/internal/runtime"
	"github.com/ua-stack/opcua/pkg/ua/binary"
	"github.com/ua-stack/opcua/pkg/ua/channel"
	"github.com/ua-stack/opcua/pkg/ua/status"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the opcuad server",
	Long: `Start the opcuad server with the specified configuration.

Use --config to specify a custom configuration file, or it will use
the default location at $XDG_CONFIG_HOME/opcuad/config.yaml.`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt, err := runtime.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize runtime: %w", err)
	}
	defer func() {
		if err := rt.Shutdown(ctx); err != nil {
			logger.Error("runtime shutdown error", "error", err)
		}
	}()

	logger.Info("opcuad starting",
		"listen_address", cfg.ListenAddress,
		"security_policies", cfg.SecurityPolicies)

	ln, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.ListenAddress, err)
	}

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- serve(ctx, ln, rt)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("opcuad is running, press Ctrl+C to stop")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received, closing listener")
		cancel()
		_ = ln.Close()
		if err := <-serverDone; err != nil && err != net.ErrClosed {
			logger.Error("server shutdown error", "error", err)
			return err
		}
		logger.Info("opcuad stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("server error", "error", err)
			return err
		}
	}

	return nil
}

// serve runs the connection-accept loop until ctx is cancelled or ln
// is closed. Each connection gets its own goroutine running the
// UA/TCP handshake; nothing beyond HEL/ACK/ERR is decoded here since
// the secure-channel-open and session-service state machines belong
// to whatever embeds this package and registers its handlers on
// rt.Dispatch.
func serve(ctx context.Context, ln net.Listener, rt *runtime.Runtime) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			if ne, ok := err.(net.Error); ok && !ne.Temporary() {
				return err
			}
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			handleConn(ctx, conn, rt)
		}()
	}
}

// handleConn drives one connection through HEL/ACK. A malformed or
// unexpected first frame gets an ERR reply and the connection is
// closed; anything past ACK (OPN, MSG) returns BadServiceUnsupported
// since no secure-channel-open handler is wired into this binary.
func handleConn(ctx context.Context, conn net.Conn, rt *runtime.Runtime) {
	defer conn.Close()

	channelID := rt.NextChannelID()
	rt.Metrics.ChannelOpened()
	defer rt.Metrics.ChannelClosed()

	header, body, err := readFrame(conn)
	if err != nil {
		logger.Warn("failed to read opening frame", "remote", conn.RemoteAddr(), "error", err)
		return
	}
	if header.Type != channel.MessageTypeHEL {
		writeErr(conn, status.BadCommunicationError, "expected HEL as the first frame")
		return
	}

	hel, err := channel.DecodeHEL(binary.NewReader(body))
	if err != nil {
		writeErr(conn, status.BadTcpInternalError, "malformed HEL body")
		return
	}

	server := channel.Limits{
		MaxMessageSize: rt.Config.MaxMessageSize,
		MaxChunkCount:  rt.Config.MaxChunkCount,
		ReceiveBuffer:  rt.Config.ReceiveBufferSize,
		SendBuffer:     rt.Config.SendBufferSize,
	}
	client := channel.Limits{
		MaxMessageSize: hel.MaxMessageSize,
		MaxChunkCount:  hel.MaxChunkCount,
		ReceiveBuffer:  hel.ReceiveBufferSize,
		SendBuffer:     hel.SendBufferSize,
	}
	negotiated := channel.NegotiateLimits(client, server)

	ack := channel.HelloBody{
		ProtocolVersion:   0,
		ReceiveBufferSize: negotiated.ReceiveBuffer,
		SendBufferSize:    negotiated.SendBuffer,
		MaxMessageSize:    negotiated.MaxMessageSize,
		MaxChunkCount:     negotiated.MaxChunkCount,
	}
	if err := writeFrame(conn, channel.MessageTypeACK, channel.ChunkFlagNone, ack.EncodeACK); err != nil {
		logger.Warn("failed to write ACK", "channel_id", channelID, "error", err)
		return
	}

	logger.Info("channel handshake complete",
		"channel_id", channelID,
		"remote", conn.RemoteAddr(),
		"max_message_size", negotiated.MaxMessageSize)

	header, _, err = readFrame(conn)
	if err != nil {
		return
	}
	writeErr(conn, status.BadServiceUnsupported, fmt.Sprintf("no handler registered for %s frames", header.Type))
}

// readFrame reads one complete UA/TCP frame and returns its header
// and body bytes.
func readFrame(r io.Reader) (channel.FrameHeader, []byte, error) {
	var hdr [channel.FrameHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return channel.FrameHeader{}, nil, err
	}
	header, err := channel.DecodeFrameHeader(binary.NewReader(hdr[:]))
	if err != nil {
		return header, nil, err
	}
	bodyLen := header.TotalSize - channel.FrameHeaderSize
	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return header, nil, err
	}
	return header, body, nil
}

// writeFrame encodes a HEL/ACK-shaped frame (8-byte header plus a
// body writer) and writes it in one Write call.
func writeFrame(w io.Writer, msgType channel.MessageType, flag channel.ChunkFlag, encodeBody func(binary.Writer) error) error {
	var buf bytes.Buffer
	if err := encodeBody(&buf); err != nil {
		return err
	}
	body := buf.Bytes()

	var out bytes.Buffer
	header := channel.FrameHeader{Type: msgType, ChunkFlag: flag, TotalSize: uint32(channel.FrameHeaderSize + len(body))}
	if err := header.Encode(&out); err != nil {
		return err
	}
	out.Write(body)

	_, err := w.Write(out.Bytes())
	return err
}

// writeErr sends an ERR frame and lets the caller's deferred Close
// handle tearing down the connection.
func writeErr(w io.Writer, code status.Code, reason string) {
	body := channel.NewErrorBody(code, reason)
	_ = writeFrame(w, channel.MessageTypeERR, channel.ChunkFlagNone, body.Encode)
}
