package session

import (
	"bufio"
	"errors"
	"io"
	"net"

	"github.com/sirupsen/logrus"

	"logicgrid/internal/protocol"
)

// Listen accepts TCP connections on addr and feeds each one into d until
// ctx-equivalent shutdown: there is no context here because the dispatcher's
// own Shutdown is the cancellation signal; Listen returns once the listener
// is closed.
func Listen(addr string, d *Dispatcher, log *logrus.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	log.WithField("addr", addr).Info("listening")

	go func() {
		<-d.shutdown
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.WithError(err).Warn("accept failed")
			continue
		}
		go handleConn(conn, d, log)
	}
}

func handleConn(conn net.Conn, d *Dispatcher, log *logrus.Logger) {
	s := newSession(conn)
	entry := log.WithField("session", s.ID)

	select {
	case d.register <- s:
	case <-d.shutdown:
		_ = conn.Close()
		return
	}

	go s.runWriter(entry)

	defer func() {
		select {
		case d.unregister <- s.ID:
		case <-d.shutdown:
		}
	}()

	dec := protocol.NewDecoder(bufio.NewReader(conn))
	for {
		msg, err := dec.Next()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				entry.WithError(err).Debug("frame decode error, closing session")
			}
			return
		}
		select {
		case d.inbound <- inboundMsg{sessionID: s.ID, msg: msg}:
		case <-d.shutdown:
			return
		}
	}
}
