package edgewasm

// xqdInit implements fastly_abi.init. version is advisory; the call always succeeds.
func (i *Instance) xqdInit(version int32) int32 {
	i.abilog.Printf("abi.init version=%d", version)
	return statusOK.i32()
}
