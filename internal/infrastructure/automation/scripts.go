package automation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// jsString quotes s as a JavaScript string literal
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func countScript(selector string) string {
	return fmt.Sprintf(`document.querySelectorAll(%s).length`, jsString(selector))
}

func clickFirstScript(selector string) string {
	return fmt.Sprintf(`(function (sel) {
  var el = document.querySelector(sel);
  if (!el) return false;
  el.click();
  return true;
})(%s)`, jsString(selector))
}

// setValueScript writes value through the prototype setter so that
// framework-controlled inputs see the change, then fires input and change.
// It evaluates to false when selector matches nothing.
func setValueScript(selector, value string) string {
	return fmt.Sprintf(`(function (sel, value) {
  var el = document.querySelector(sel);
  if (!el) return false;
  var proto = HTMLInputElement.prototype;
  if (el.tagName === "SELECT") proto = HTMLSelectElement.prototype;
  if (el.tagName === "TEXTAREA") proto = HTMLTextAreaElement.prototype;
  el.focus();
  Object.getOwnPropertyDescriptor(proto, "value").set.call(el, value);
  el.dispatchEvent(new Event("input", { bubbles: true }));
  el.dispatchEvent(new Event("change", { bubbles: true }));
  el.blur();
  return true;
})(%s, %s)`, jsString(selector), jsString(value))
}

// confirmationText is what the confirmation page shows
type confirmationText struct {
	OrderNumber    string `json:"order_number"`
	TrackingNumber string `json:"tracking_number"`
	TrackingURL    string `json:"tracking_url"`
}

func confirmationScript(orderNumber, trackingNumber, trackingLink string) string {
	return fmt.Sprintf(`(function (orderSel, trackingSel, linkSel) {
  function text(sel) {
    if (!sel) return "";
    var el = document.querySelector(sel);
    return el ? (el.innerText || el.textContent || "").trim() : "";
  }
  var link = linkSel ? document.querySelector(linkSel) : null;
  return {
    order_number: text(orderSel),
    tracking_number: text(trackingSel),
    tracking_url: link && link.href ? link.href : ""
  };
})(%s, %s, %s)`, jsString(orderNumber), jsString(trackingNumber), jsString(trackingLink))
}

var identifierPattern = regexp.MustCompile(`[A-Za-z0-9-]*\d[A-Za-z0-9-]*`)

// parseIdentifier pulls an order or tracking number out of a label such as
// "Order number: 8123456789". The first token of at least four characters
// that contains a digit wins.
func parseIdentifier(text string) string {
	for _, token := range identifierPattern.FindAllString(text, -1) {
		token = strings.Trim(token, "-")
		if len(token) >= 4 {
			return token
		}
	}
	return ""
}
