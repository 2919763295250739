//go:build tinygo

package main

import "unsafe"

//go:wasmimport env state_get
func stateGet(keyPtr, keyLen, bufPtr, bufLen uint32) int32

//go:wasmimport env state_set
func stateSet(keyPtr, keyLen, valPtr, valLen uint32)

//go:wasmimport env caller
func callerID(bufPtr, bufLen uint32) uint32

//go:wasmimport env tx_id
func txID(bufPtr, bufLen uint32) uint32

//go:wasmimport env incoming_transfers
func incomingTransfers(bufPtr, bufLen uint32) uint32

//go:wasmimport env transfer
func transfer(ptr, n uint32) uint32

const bufSize = 4096

var buf [bufSize]byte

func ptrOf(s string) (uint32, uint32) {
	if len(s) == 0 {
		return 0, 0
	}
	return uint32(uintptr(unsafe.Pointer(unsafe.StringData(s)))), uint32(len(s))
}

func bufPtr() uint32 { return uint32(uintptr(unsafe.Pointer(&buf[0]))) }

type wasmEnv struct{}

func (wasmEnv) Get(key string) (string, bool) {
	kp, kl := ptrOf(key)
	n := stateGet(kp, kl, bufPtr(), bufSize)
	if n < 0 {
		return "", false
	}
	return string(hostBytes(buf[:], int(n), "state value")), true
}

func (wasmEnv) Set(key, value string) {
	kp, kl := ptrOf(key)
	vp, vl := ptrOf(value)
	stateSet(kp, kl, vp, vl)
}

func (wasmEnv) Caller() string {
	n := callerID(bufPtr(), bufSize)
	return string(hostBytes(buf[:], int(n), "caller"))
}

func (wasmEnv) TxID() string {
	n := txID(bufPtr(), bufSize)
	return string(hostBytes(buf[:], int(n), "tx id"))
}

func (wasmEnv) Incoming() []byte {
	n := incomingTransfers(bufPtr(), bufSize)
	data := hostBytes(buf[:], int(n), "incoming transfers")
	out := make([]byte, len(data))
	copy(out, data)
	return out
}

func (wasmEnv) Transfer(payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	if transfer(uint32(uintptr(unsafe.Pointer(&payload[0]))), uint32(len(payload))) != 0 {
		return errTransferRejected
	}
	return nil
}

// Execute runs one call. Payload: "opcode,arg1,arg2,..." e.g. "42" or "0,1,0".
// Any error aborts the call so the host reverts it.
//
//go:wasmexport execute
func Execute(payload *string) *string {
	if payload == nil {
		panic("payload required")
	}
	out, err := run(wasmEnv{}, *payload)
	if err != nil {
		panic(err.Error())
	}
	return &out
}
