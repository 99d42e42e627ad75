package utils

import (
	"encoding/json"
	"fmt"
)

// queryFunc resolves a selector inside the page, stamps every match with a
// data-rx-ref handle and returns the matches as JSON.
const queryFunc = `(scope, by, sel) => {
  const root = scope ? document.querySelector('[data-rx-ref="' + scope + '"]') : document;
  if (!root) return "[]";
  let els = [];
  if (by === "xpath") {
    const it = document.evaluate(sel, root, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
    for (let i = 0; i < it.snapshotLength; i++) {
      const n = it.snapshotItem(i);
      if (n.nodeType === 1) els.push(n);
    }
  } else {
    els = Array.from(root.querySelectorAll(sel));
  }
  window.__rxSeq = window.__rxSeq || 0;
  return JSON.stringify(els.map(el => {
    let ref = el.getAttribute("data-rx-ref");
    if (!ref) {
      ref = "rx" + (++window.__rxSeq);
      el.setAttribute("data-rx-ref", ref);
    }
    const r = el.getBoundingClientRect();
    const attrs = {};
    for (const a of el.attributes) attrs[a.name] = a.value;
    return {
      ref: ref,
      tag: el.tagName.toLowerCase(),
      text: (el.innerText || el.textContent || "").trim(),
      attrs: attrs,
      width: r.width,
      height: r.height
    };
  }));
}`

// maskScript hides the most common automation fingerprints before any page
// script runs.
const maskScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'languages', { get: () => ['en-AU', 'en'] });
window.chrome = window.chrome || { runtime: {} };
`

// jsArgs renders Go values as JavaScript literals.
func jsArgs(args ...interface{}) string {
	out := ""
	for i, a := range args {
		b, _ := json.Marshal(a)
		if i > 0 {
			out += ", "
		}
		out += string(b)
	}
	return out
}

// invoke renders a call of the function expression fn with args.
func invoke(fn string, args ...interface{}) string {
	return fmt.Sprintf("(%s)(%s)", fn, jsArgs(args...))
}

// clickFunc dispatches a script-level click on a stamped element.
const clickFunc = `(ref) => {
  const el = document.querySelector('[data-rx-ref="' + ref + '"]');
  if (!el) return false;
  el.click();
  return true;
}`

const scrollIntoViewFunc = `(ref) => {
  const el = document.querySelector('[data-rx-ref="' + ref + '"]');
  if (el) el.scrollIntoView({block: "center"});
  return !!el;
}`

const shadowHTMLFunc = `(sel) => {
  const host = document.querySelector(sel);
  return host && host.shadowRoot ? host.shadowRoot.innerHTML : "";
}`

func clickExpr(ref string) string { return invoke(clickFunc, ref) }

func scrollIntoViewExpr(ref string) string { return invoke(scrollIntoViewFunc, ref) }

func shadowHTMLExpr(hostSelector string) string { return invoke(shadowHTMLFunc, hostSelector) }
