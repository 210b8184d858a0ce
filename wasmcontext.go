package edgewasm

import (
	"fmt"

	"github.com/bytecodealliance/wasmtime-go/v25"
)

// wasmContext holds the compiled engine and module, shared read-only by every Instance
// created from the same Fastlike.
type wasmContext struct {
	engine *wasmtime.Engine
	module *wasmtime.Module
}

func compileFile(wasmfile string) (*wasmContext, error) {
	cfg := wasmtime.NewConfig()
	cfg.SetEpochInterruption(true)
	engine := wasmtime.NewEngineWithConfig(cfg)
	module, err := wasmtime.NewModuleFromFile(engine, wasmfile)
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", wasmfile, err)
	}
	return &wasmContext{engine: engine, module: module}, nil
}

func compileBytes(wasm []byte) (*wasmContext, error) {
	cfg := wasmtime.NewConfig()
	cfg.SetEpochInterruption(true)
	engine := wasmtime.NewEngineWithConfig(cfg)
	module, err := wasmtime.NewModule(engine, wasm)
	if err != nil {
		return nil, fmt.Errorf("compiling wasm module: %w", err)
	}
	return &wasmContext{engine: engine, module: module}, nil
}

// link registers the seven host-call ABI namespaces against linker (WASI is defined
// separately, in setup), with every function closing over this Instance's Session State.
// A host function that panics aborts the guest; ServeHTTP reports both a trap returned by
// Func.Call and a panic re-raised from it as an error. This is how the ABI's traps
// (unknown HTTP version on version_set, a second body_downstream_get, invalid header
// bytes on header_values_set) reach the Lifecycle Driver.
func (i *Instance) link(linker *wasmtime.Linker) error {
	type reg struct {
		ns, name string
		fn       interface{}
	}

	regs := []reg{
		{"fastly_abi", "init", func(_ *wasmtime.Caller, version int32) int32 {
			return i.xqdInit(version)
		}},

		{"fastly_uap", "parse", func(_ *wasmtime.Caller,
			addr, size,
			familyOut, familyMaxLen, familyNWrittenOut,
			majorOut, majorMaxLen, majorNWrittenOut,
			minorOut, minorMaxLen, minorNWrittenOut,
			patchOut, patchMaxLen, patchNWrittenOut int32) int32 {
			return i.xqdUapParse(addr, size,
				familyOut, familyMaxLen, familyNWrittenOut,
				majorOut, majorMaxLen, majorNWrittenOut,
				minorOut, minorMaxLen, minorNWrittenOut,
				patchOut, patchMaxLen, patchNWrittenOut)
		}},

		{"fastly_dictionary", "open", func(_ *wasmtime.Caller, nameAddr, nameSize, hOut int32) int32 {
			return i.xqdDictionaryOpen(nameAddr, nameSize, hOut)
		}},
		{"fastly_dictionary", "get", func(_ *wasmtime.Caller, h, keyAddr, keySize, addr, maxlen, nwrittenOut int32) int32 {
			return i.xqdDictionaryGet(h, keyAddr, keySize, addr, maxlen, nwrittenOut)
		}},

		{"fastly_log", "endpoint_get", func(_ *wasmtime.Caller, nameAddr, nameSize, hOut int32) int32 {
			return i.xqdLogEndpointGet(nameAddr, nameSize, hOut)
		}},
		{"fastly_log", "write", func(_ *wasmtime.Caller, h, msgAddr, msgSize, nwrittenOut int32) int32 {
			return i.xqdLogWrite(h, msgAddr, msgSize, nwrittenOut)
		}},

		{"fastly_http_body", "new", func(_ *wasmtime.Caller, hOut int32) int32 {
			return i.xqdBodyNew(hOut)
		}},
		{"fastly_http_body", "write", func(_ *wasmtime.Caller, h, addr, size, endFlag, nwrittenOut int32) int32 {
			return i.xqdBodyWrite(h, addr, size, endFlag, nwrittenOut)
		}},
		{"fastly_http_body", "read", func(_ *wasmtime.Caller, h, buf, bufLen, nreadOut int32) int32 {
			return i.xqdBodyRead(h, buf, bufLen, nreadOut)
		}},
		{"fastly_http_body", "append", func(_ *wasmtime.Caller, dstH, srcH int32) int32 {
			return i.xqdBodyAppend(dstH, srcH)
		}},
		{"fastly_http_body", "close", func(_ *wasmtime.Caller, h int32) int32 {
			return i.xqdBodyClose(h)
		}},

		{"fastly_http_req", "body_downstream_get", func(_ *wasmtime.Caller, reqOut, bodyOut int32) int32 {
			return i.xqdReqBodyDownstreamGet(reqOut, bodyOut)
		}},
		{"fastly_http_req", "new", func(_ *wasmtime.Caller, hOut int32) int32 {
			return i.xqdReqNew(hOut)
		}},
		{"fastly_http_req", "method_get", func(_ *wasmtime.Caller, h, addr, maxlen, nwrittenOut int32) int32 {
			return i.xqdReqMethodGet(h, addr, maxlen, nwrittenOut)
		}},
		{"fastly_http_req", "method_set", func(_ *wasmtime.Caller, h, addr, size int32) int32 {
			return i.xqdReqMethodSet(h, addr, size)
		}},
		{"fastly_http_req", "uri_get", func(_ *wasmtime.Caller, h, addr, maxlen, nwrittenOut int32) int32 {
			return i.xqdReqURIGet(h, addr, maxlen, nwrittenOut)
		}},
		{"fastly_http_req", "uri_set", func(_ *wasmtime.Caller, h, addr, size int32) int32 {
			return i.xqdReqURISet(h, addr, size)
		}},
		{"fastly_http_req", "version_get", func(_ *wasmtime.Caller, h, out int32) int32 {
			return i.xqdReqVersionGet(h, out)
		}},
		{"fastly_http_req", "version_set", func(_ *wasmtime.Caller, h, version int32) int32 {
			return i.xqdReqVersionSet(h, version)
		}},
		{"fastly_http_req", "header_names_get", func(_ *wasmtime.Caller, h, addr, maxlen, cursor, cursorOut, nwrittenOut int32) int32 {
			return i.xqdReqHeaderNamesGet(h, addr, maxlen, cursor, cursorOut, nwrittenOut)
		}},
		{"fastly_http_req", "header_values_get", func(_ *wasmtime.Caller, h, nameAddr, nameSize, addr, maxlen, cursor, cursorOut, nwrittenOut int32) int32 {
			return i.xqdReqHeaderValuesGet(h, nameAddr, nameSize, addr, maxlen, cursor, cursorOut, nwrittenOut)
		}},
		{"fastly_http_req", "header_values_set", func(_ *wasmtime.Caller, h, nameAddr, nameSize, valsAddr, valsSize int32) int32 {
			return i.xqdReqHeaderValuesSet(h, nameAddr, nameSize, valsAddr, valsSize)
		}},
		{"fastly_http_req", "header_insert", func(_ *wasmtime.Caller, h, nameAddr, nameSize, valueAddr, valueSize int32) int32 {
			return i.xqdReqHeaderInsert(h, nameAddr, nameSize, valueAddr, valueSize)
		}},
		{"fastly_http_req", "header_remove", func(_ *wasmtime.Caller, h, nameAddr, nameSize int32) int32 {
			return i.xqdReqHeaderRemove(h, nameAddr, nameSize)
		}},
		{"fastly_http_req", "header_append", func(_ *wasmtime.Caller, h, nameAddr, nameSize, valueAddr, valueSize int32) int32 {
			return i.xqdReqHeaderAppend(h, nameAddr, nameSize, valueAddr, valueSize)
		}},
		{"fastly_http_req", "header_value_get", func(_ *wasmtime.Caller, h, nameAddr, nameSize, addr, maxlen, nwrittenOut int32) int32 {
			return i.xqdReqHeaderValueGet(h, nameAddr, nameSize, addr, maxlen, nwrittenOut)
		}},
		{"fastly_http_req", "original_header_count", func(_ *wasmtime.Caller, out int32) int32 {
			return i.xqdReqOriginalHeaderCount(out)
		}},
		{"fastly_http_req", "original_header_names_get", func(_ *wasmtime.Caller, addr, maxlen, cursor, cursorOut, nwrittenOut int32) int32 {
			return i.xqdReqOriginalHeaderNamesGet(addr, maxlen, cursor, cursorOut, nwrittenOut)
		}},
		{"fastly_http_req", "downstream_client_ip_addr", func(_ *wasmtime.Caller, addr, nwrittenOut int32) int32 {
			return i.xqdReqDownstreamClientIPAddr(addr, nwrittenOut)
		}},
		{"fastly_http_req", "send", func(_ *wasmtime.Caller, reqH, bodyH, backendAddr, backendLen, respOut, respBodyOut int32) int32 {
			return i.xqdReqSend(reqH, bodyH, backendAddr, backendLen, respOut, respBodyOut)
		}},
		{"fastly_http_req", "cache_override_set", func(_ *wasmtime.Caller, h, tag, ttl, swr int32) int32 {
			return i.xqdReqCacheOverrideSet(h, tag, ttl, swr)
		}},
		{"fastly_http_req", "cache_override_v2_set", func(_ *wasmtime.Caller, h, tag, ttl, swr, skAddr, skLen int32) int32 {
			return i.xqdReqCacheOverrideV2Set(h, tag, ttl, swr, skAddr, skLen)
		}},

		{"fastly_http_resp", "new", func(_ *wasmtime.Caller, hOut int32) int32 {
			return i.xqdRespNew(hOut)
		}},
		{"fastly_http_resp", "status_get", func(_ *wasmtime.Caller, h, out int32) int32 {
			return i.xqdRespStatusGet(h, out)
		}},
		{"fastly_http_resp", "status_set", func(_ *wasmtime.Caller, h, code int32) int32 {
			return i.xqdRespStatusSet(h, code)
		}},
		{"fastly_http_resp", "version_get", func(_ *wasmtime.Caller, h, out int32) int32 {
			return i.xqdRespVersionGet(h, out)
		}},
		{"fastly_http_resp", "version_set", func(_ *wasmtime.Caller, h, version int32) int32 {
			return i.xqdRespVersionSet(h, version)
		}},
		{"fastly_http_resp", "header_names_get", func(_ *wasmtime.Caller, h, addr, maxlen, cursor, cursorOut, nwrittenOut int32) int32 {
			return i.xqdRespHeaderNamesGet(h, addr, maxlen, cursor, cursorOut, nwrittenOut)
		}},
		{"fastly_http_resp", "header_values_get", func(_ *wasmtime.Caller, h, nameAddr, nameSize, addr, maxlen, cursor, cursorOut, nwrittenOut int32) int32 {
			return i.xqdRespHeaderValuesGet(h, nameAddr, nameSize, addr, maxlen, cursor, cursorOut, nwrittenOut)
		}},
		{"fastly_http_resp", "header_values_set", func(_ *wasmtime.Caller, h, nameAddr, nameSize, valsAddr, valsSize int32) int32 {
			return i.xqdRespHeaderValuesSet(h, nameAddr, nameSize, valsAddr, valsSize)
		}},
		{"fastly_http_resp", "header_insert", func(_ *wasmtime.Caller, h, nameAddr, nameSize, valueAddr, valueSize int32) int32 {
			return i.xqdRespHeaderInsert(h, nameAddr, nameSize, valueAddr, valueSize)
		}},
		{"fastly_http_resp", "header_remove", func(_ *wasmtime.Caller, h, nameAddr, nameSize int32) int32 {
			return i.xqdRespHeaderRemove(h, nameAddr, nameSize)
		}},
		{"fastly_http_resp", "header_append", func(_ *wasmtime.Caller, h, nameAddr, nameSize, valueAddr, valueSize int32) int32 {
			return i.xqdRespHeaderAppend(h, nameAddr, nameSize, valueAddr, valueSize)
		}},
		{"fastly_http_resp", "send_downstream", func(_ *wasmtime.Caller, respH, bodyH, stream int32) int32 {
			return i.xqdRespSendDownstream(respH, bodyH, stream)
		}},
	}

	for _, r := range regs {
		if err := linker.FuncWrap(r.ns, r.name, r.fn); err != nil {
			return fmt.Errorf("registering %s.%s: %w", r.ns, r.name, err)
		}
	}

	return nil
}
