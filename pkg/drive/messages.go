/*
   GCRDrive - Commodore 1541 floppy drive emulator
   Copyright (c) 2021, Alexander Vollschwitz

   This file is part of GCRDrive.

   GCRDrive is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   GCRDrive is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with GCRDrive. If not, see <http://www.gnu.org/licenses/>.
*/

package drive

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

//
type MsgType int

const (
	MsgNone MsgType = iota
	MsgDriveConnect
	MsgDriveDisconnect
	MsgDrivePowerOn
	MsgDrivePowerOff
	MsgDriveActive
	MsgDriveInactive
	MsgDriveLEDOn
	MsgDriveLEDOff
	MsgDriveMotorOn
	MsgDriveMotorOff
	MsgDriveStep
	MsgDiskInserted
	MsgDiskEjected
	MsgDiskInsertFailed
	MsgDiskProtected
	MsgDiskUnprotected
	MsgDiskModified
	MsgDiskSaved
)

var msgNames = map[MsgType]string{
	MsgNone:             "none",
	MsgDriveConnect:     "connect",
	MsgDriveDisconnect:  "disconnect",
	MsgDrivePowerOn:     "power-on",
	MsgDrivePowerOff:    "power-off",
	MsgDriveActive:      "active",
	MsgDriveInactive:    "inactive",
	MsgDriveLEDOn:       "led-on",
	MsgDriveLEDOff:      "led-off",
	MsgDriveMotorOn:     "motor-on",
	MsgDriveMotorOff:    "motor-off",
	MsgDriveStep:        "step",
	MsgDiskInserted:     "inserted",
	MsgDiskEjected:      "ejected",
	MsgDiskInsertFailed: "insert-failed",
	MsgDiskProtected:    "protected",
	MsgDiskUnprotected:  "unprotected",
	MsgDiskModified:     "modified",
	MsgDiskSaved:        "saved",
}

//
func (t MsgType) String() string {
	if n, ok := msgNames[t]; ok {
		return n
	}
	return fmt.Sprintf("msg-%d", int(t))
}

//
func (t MsgType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Message is a notification sent from a drive to its listeners. Halftrack,
// Volume and Pan are only set for messages where they apply.
type Message struct {
	Type      MsgType `json:"type"`
	Drive     int     `json:"drive"`
	Halftrack int     `json:"halftrack,omitempty"`
	Volume    int     `json:"volume,omitempty"`
	Pan       int     `json:"pan,omitempty"`
	Info      string  `json:"info,omitempty"`
}

//
func (m Message) String() string {
	if m.Info != "" {
		return fmt.Sprintf("drive %d: %v (%s)", m.Drive, m.Type, m.Info)
	}
	return fmt.Sprintf("drive %d: %v", m.Drive, m.Type)
}

// Notifier receives drive messages. Notify is called from the emulation
// loop and must not block.
type Notifier interface {
	Notify(m Message)
}

// MessageQueue is a Notifier that fans messages out to any number of
// subscribers. Subscribers that do not keep up lose messages.
type MessageQueue struct {
	subscribers map[int]chan Message
	next        int
	capacity    int
	lock        sync.Mutex
}

//
func NewMessageQueue(capacity int) *MessageQueue {
	return &MessageQueue{
		subscribers: make(map[int]chan Message),
		capacity:    capacity,
	}
}

//
func (q *MessageQueue) Notify(m Message) {
	q.lock.Lock()
	defer q.lock.Unlock()
	for id, ch := range q.subscribers {
		select {
		case ch <- m:
		default:
			log.WithField("subscriber", id).Warnf("dropping message: %v", m)
		}
	}
}

// Subscribe returns a channel receiving all subsequent messages, and a
// function for cancelling the subscription, which closes the channel.
func (q *MessageQueue) Subscribe() (<-chan Message, func()) {

	q.lock.Lock()
	defer q.lock.Unlock()

	id := q.next
	q.next++
	ch := make(chan Message, q.capacity)
	q.subscribers[id] = ch

	return ch, func() {
		q.lock.Lock()
		defer q.lock.Unlock()
		if c, ok := q.subscribers[id]; ok {
			delete(q.subscribers, id)
			close(c)
		}
	}
}

type nopNotifier struct{}

func (nopNotifier) Notify(Message) {}
