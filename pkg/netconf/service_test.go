package netconf

import (
	"strings"
	"testing"

	"github.com/netmimic/netmimic/pkg/stub"
	"github.com/netmimic/netmimic/pkg/xmltree"
	"github.com/netmimic/netmimic/pkg/yangtree"
)

const routerYang = `
module test-router {
  namespace "urn:test:router";
  prefix tr;

  container system {
    leaf hostname { type string; }
  }
}
`

func testService(t *testing.T) (*Service, *stub.Entity) {
	t.Helper()
	builder := yangtree.NewBuilder()
	builder.AddModule("test-router.yang", routerYang)
	tree, err := builder.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	yangs := yangtree.NewRepository()
	yangs.Save(&yangtree.Entity{ID: "test-router", Tree: tree})

	return NewService(1, yangs), stub.NewEntity("r0", "", "junos", "test-router", true)
}

func execute(t *testing.T, s *Service, e *stub.Entity, rpc string) string {
	t.Helper()
	parsed, err := xmltree.Parse(rpc)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	reply, err := s.Execute(e, parsed)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	return reply.Compact()
}

func TestExecuteEditConfigAndCommit(t *testing.T) {
	s, e := testService(t)

	reply := execute(t, s, e, `<rpc message-id="101">
	  <edit-config>
	    <target><candidate/></target>
	    <config><system><hostname>r0</hostname></system></config>
	  </edit-config>
	</rpc>`)
	if !strings.Contains(reply, "<ok/>") {
		t.Fatalf("edit-config reply = %q, want ok", reply)
	}
	if !strings.Contains(reply, `message-id="101"`) {
		t.Errorf("reply = %q, want echoed message-id", reply)
	}

	reply = execute(t, s, e, `<rpc message-id="102"><commit/></rpc>`)
	if !strings.Contains(reply, "<ok/>") {
		t.Fatalf("commit reply = %q, want ok", reply)
	}

	reply = execute(t, s, e, `<rpc message-id="103">
	  <get-config><source><running/></source></get-config>
	</rpc>`)
	if !strings.Contains(reply, "<hostname>r0</hostname>") {
		t.Errorf("get-config reply = %q, want committed hostname", reply)
	}
	if !strings.Contains(reply, "<data") {
		t.Errorf("get-config reply = %q, want a data element", reply)
	}
}

func TestExecuteGetConfigWithFilter(t *testing.T) {
	s, e := testService(t)

	execute(t, s, e, `<rpc message-id="1">
	  <edit-config>
	    <target><candidate/></target>
	    <config><system><hostname>r0</hostname></system></config>
	  </edit-config>
	</rpc>`)

	reply := execute(t, s, e, `<rpc message-id="2">
	  <get-config>
	    <source><candidate/></source>
	    <filter><system><hostname>other</hostname></system></filter>
	  </get-config>
	</rpc>`)
	if strings.Contains(reply, "hostname") {
		t.Errorf("reply = %q, mismatching filter should hide the leaf", reply)
	}
}

func TestExecuteGetReadsRunning(t *testing.T) {
	s, e := testService(t)

	execute(t, s, e, `<rpc message-id="1">
	  <edit-config>
	    <target><candidate/></target>
	    <config><system><hostname>r0</hostname></system></config>
	  </edit-config>
	</rpc>`)

	// Uncommitted candidate content is invisible to get.
	reply := execute(t, s, e, `<rpc message-id="2"><get/></rpc>`)
	if strings.Contains(reply, "r0") {
		t.Errorf("get reply = %q, want empty data before commit", reply)
	}
}

func TestExecuteEditConfigError(t *testing.T) {
	s, e := testService(t)

	reply := execute(t, s, e, `<rpc message-id="7">
	  <edit-config>
	    <target><candidate/></target>
	    <config><system><bogus>x</bogus></system></config>
	  </edit-config>
	</rpc>`)
	if !strings.Contains(reply, "<rpc-error>") {
		t.Fatalf("reply = %q, want rpc-error", reply)
	}
	for _, field := range []string{
		"<error-type>protocol</error-type>",
		"<error-tag>operation-failed</error-tag>",
		"<error-severity>error</error-severity>",
	} {
		if !strings.Contains(reply, field) {
			t.Errorf("reply = %q, want %s", reply, field)
		}
	}
	if !strings.Contains(reply, "bogus") {
		t.Errorf("reply = %q, error-message should carry the cause", reply)
	}
}

func TestExecuteLockUnlock(t *testing.T) {
	s, e := testService(t)

	for _, op := range []string{"lock", "unlock"} {
		reply := execute(t, s, e, `<rpc message-id="5"><`+op+`><target><candidate/></target></`+op+`></rpc>`)
		if !strings.Contains(reply, "<ok/>") {
			t.Errorf("%s reply = %q, want ok", op, reply)
		}
	}
}

func TestExecuteValidate(t *testing.T) {
	s, e := testService(t)

	reply := execute(t, s, e, `<rpc message-id="6">
	  <validate><source><candidate/></source></validate>
	</rpc>`)
	if !strings.Contains(reply, "<ok/>") {
		t.Errorf("validate reply = %q, want ok", reply)
	}

	reply = execute(t, s, e, `<rpc message-id="7">
	  <validate><source><config><bogus>x</bogus></config></source></validate>
	</rpc>`)
	if !strings.Contains(reply, "<rpc-error>") {
		t.Errorf("validate reply = %q, want rpc-error on an invalid inline config", reply)
	}
}

func TestExecuteDiscardChanges(t *testing.T) {
	s, e := testService(t)

	execute(t, s, e, `<rpc message-id="1">
	  <edit-config>
	    <target><candidate/></target>
	    <config><system><hostname>r0</hostname></system></config>
	  </edit-config>
	</rpc>`)
	execute(t, s, e, `<rpc message-id="2"><discard-changes/></rpc>`)

	reply := execute(t, s, e, `<rpc message-id="3">
	  <get-config><source><candidate/></source></get-config>
	</rpc>`)
	if strings.Contains(reply, "r0") {
		t.Errorf("reply = %q, discarded candidate should be empty", reply)
	}
}

func TestExecuteUnsupportedOperation(t *testing.T) {
	s, e := testService(t)

	rpc, _ := xmltree.Parse(`<rpc message-id="9"><kill-session/></rpc>`)
	if _, err := s.Execute(e, rpc); err == nil {
		t.Error("unsupported operation should fail")
	}

	noID, _ := xmltree.Parse(`<rpc><get/></rpc>`)
	if _, err := s.Execute(e, noID); err == nil {
		t.Error("rpc without message-id should fail")
	}
}

func TestExecuteUnknownYang(t *testing.T) {
	s, _ := testService(t)
	orphan := stub.NewEntity("r1", "", "junos", "missing-model", true)

	reply := execute(t, s, orphan, `<rpc message-id="4">
	  <get-config><source><running/></source></get-config>
	</rpc>`)
	if !strings.Contains(reply, "<rpc-error>") {
		t.Errorf("reply = %q, missing yang tree should produce rpc-error", reply)
	}
}

func TestHello(t *testing.T) {
	s, _ := testService(t)

	hello := s.Hello(nil).Compact()
	if !strings.Contains(hello, "<session-id>1</session-id>") {
		t.Errorf("hello = %q, want session-id 1", hello)
	}
	if !strings.Contains(hello, "urn:ietf:params:netconf:base:1.0") {
		t.Errorf("hello = %q, want the base capability", hello)
	}
	if !strings.Contains(hello, `xmlns="urn:ietf:params:xml:ns:netconf:base:1.0"`) {
		t.Errorf("hello = %q, want the base namespace", hello)
	}

	custom := s.Hello([]string{"urn:custom:cap"}).Compact()
	if !strings.Contains(custom, "urn:custom:cap") || strings.Contains(custom, "writable-running") {
		t.Errorf("custom hello = %q, want only the supplied capability", custom)
	}
}
