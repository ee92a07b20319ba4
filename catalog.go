package measurement

// FieldKind names a hit field the way callers refer to it, e.g. "EventCategory".
type FieldKind string

// General.
const (
	ProtocolVersion FieldKind = "ProtocolVersion"
	TrackingID      FieldKind = "TrackingId"
	AnonymizeIP     FieldKind = "AnonymizeIp"
	DataSource      FieldKind = "DataSource"
	QueueTime       FieldKind = "QueueTime"
	CacheBuster     FieldKind = "CacheBuster"
	CurrencyCode    FieldKind = "CurrencyCode"
)

// User.
const (
	ClientID FieldKind = "ClientId"
	UserID   FieldKind = "UserId"
)

// Session.
const (
	SessionControl       FieldKind = "SessionControl"
	IPOverride           FieldKind = "IpOverride"
	UserAgentOverride    FieldKind = "UserAgentOverride"
	GeographicalOverride FieldKind = "GeographicalOverride"
)

// Traffic sources.
const (
	DocumentReferrer   FieldKind = "DocumentReferrer"
	CampaignName       FieldKind = "CampaignName"
	CampaignSource     FieldKind = "CampaignSource"
	CampaignMedium     FieldKind = "CampaignMedium"
	CampaignKeyword    FieldKind = "CampaignKeyword"
	CampaignContent    FieldKind = "CampaignContent"
	CampaignID         FieldKind = "CampaignId"
	GoogleAdwordsID    FieldKind = "GoogleAdwordsId"
	GoogleDisplayAdsID FieldKind = "GoogleDisplayAdsId"
)

// System info.
const (
	ScreenResolution FieldKind = "ScreenResolution"
	ViewportSize     FieldKind = "ViewportSize"
	DocumentEncoding FieldKind = "DocumentEncoding"
	ScreenColors     FieldKind = "ScreenColors"
	UserLanguage     FieldKind = "UserLanguage"
	JavaEnabled      FieldKind = "JavaEnabled"
	FlashVersion     FieldKind = "FlashVersion"
)

// Hit.
const (
	HitType           FieldKind = "HitType"
	NonInteractionHit FieldKind = "NonInteractionHit"
)

// Content information.
const (
	DocumentLocationURL FieldKind = "DocumentLocationUrl"
	DocumentHostName    FieldKind = "DocumentHostName"
	DocumentPath        FieldKind = "DocumentPath"
	DocumentTitle       FieldKind = "DocumentTitle"
	ScreenName          FieldKind = "ScreenName"
	LinkID              FieldKind = "LinkId"
)

// App tracking.
const (
	ApplicationName        FieldKind = "ApplicationName"
	ApplicationID          FieldKind = "ApplicationId"
	ApplicationVersion     FieldKind = "ApplicationVersion"
	ApplicationInstallerID FieldKind = "ApplicationInstallerId"
)

// Event tracking.
const (
	EventCategory FieldKind = "EventCategory"
	EventAction   FieldKind = "EventAction"
	EventLabel    FieldKind = "EventLabel"
	EventValue    FieldKind = "EventValue"
)

// E-commerce.
const (
	TransactionID FieldKind = "TransactionId"
	Affiliation   FieldKind = "Affiliation"
	Revenue       FieldKind = "Revenue"
	Shipping      FieldKind = "Shipping"
	Tax           FieldKind = "Tax"
	ItemName      FieldKind = "ItemName"
	ItemPrice     FieldKind = "ItemPrice"
	ItemQuantity  FieldKind = "ItemQuantity"
	ItemCode      FieldKind = "ItemCode"
	ItemCategory  FieldKind = "ItemCategory"
)

// Enhanced e-commerce.
const (
	CouponCode         FieldKind = "CouponCode"
	ProductActionList  FieldKind = "ProductActionList"
	CheckoutStep       FieldKind = "CheckoutStep"
	CheckoutStepOption FieldKind = "CheckoutStepOption"
	ProductAction      FieldKind = "ProductAction"
	PromotionAction    FieldKind = "PromotionAction"

	Product           FieldKind = "Product"
	ProductImpression FieldKind = "ProductImpression"
	Promotion         FieldKind = "Promotion"
)

// Social interactions.
const (
	SocialNetwork      FieldKind = "SocialNetwork"
	SocialAction       FieldKind = "SocialAction"
	SocialActionTarget FieldKind = "SocialActionTarget"
)

// Timing.
const (
	UserTimingCategory     FieldKind = "UserTimingCategory"
	UserTimingVariableName FieldKind = "UserTimingVariableName"
	UserTimingTime         FieldKind = "UserTimingTime"
	UserTimingLabel        FieldKind = "UserTimingLabel"
	PageLoadTime           FieldKind = "PageLoadTime"
	DNSTime                FieldKind = "DnsTime"
	PageDownloadTime       FieldKind = "PageDownloadTime"
	RedirectResponseTime   FieldKind = "RedirectResponseTime"
	TCPConnectTime         FieldKind = "TcpConnectTime"
	ServerResponseTime     FieldKind = "ServerResponseTime"
	DOMInteractiveTime     FieldKind = "DomInteractiveTime"
	ContentLoadTime        FieldKind = "ContentLoadTime"
)

// Exceptions and content experiments.
const (
	ExceptionDescription FieldKind = "ExceptionDescription"
	IsExceptionFatal     FieldKind = "IsExceptionFatal"
	ExperimentID         FieldKind = "ExperimentId"
	ExperimentVariant    FieldKind = "ExperimentVariant"
)

// Hit type values accepted by the collection endpoint.
const (
	HitTypePageview    = "pageview"
	HitTypeScreenview  = "screenview"
	HitTypeEvent       = "event"
	HitTypeTransaction = "transaction"
	HitTypeItem        = "item"
	HitTypeSocial      = "social"
	HitTypeException   = "exception"
	HitTypeTiming      = "timing"
)

// Product action values accepted by the collection endpoint.
const (
	ProductActionDetail         = "detail"
	ProductActionClick          = "click"
	ProductActionAdd            = "add"
	ProductActionRemove         = "remove"
	ProductActionCheckout       = "checkout"
	ProductActionCheckoutOption = "checkout_option"
	ProductActionPurchase       = "purchase"
	ProductActionRefund         = "refund"
)

type singleEntry struct {
	kind     FieldKind
	wireKey  string
	monetary bool
}

var singleCatalog = []singleEntry{
	{ProtocolVersion, "v", false},
	{TrackingID, "tid", false},
	{AnonymizeIP, "aip", false},
	{DataSource, "ds", false},
	{QueueTime, "qt", false},
	{CacheBuster, "z", false},
	{CurrencyCode, "cu", false},

	{ClientID, "cid", false},
	{UserID, "uid", false},

	{SessionControl, "sc", false},
	{IPOverride, "uip", false},
	{UserAgentOverride, "ua", false},
	{GeographicalOverride, "geoid", false},

	{DocumentReferrer, "dr", false},
	{CampaignName, "cn", false},
	{CampaignSource, "cs", false},
	{CampaignMedium, "cm", false},
	{CampaignKeyword, "ck", false},
	{CampaignContent, "cc", false},
	{CampaignID, "ci", false},
	{GoogleAdwordsID, "gclid", false},
	{GoogleDisplayAdsID, "dclid", false},

	{ScreenResolution, "sr", false},
	{ViewportSize, "vp", false},
	{DocumentEncoding, "de", false},
	{ScreenColors, "sd", false},
	{UserLanguage, "ul", false},
	{JavaEnabled, "je", false},
	{FlashVersion, "fl", false},

	{HitType, "t", false},
	{NonInteractionHit, "ni", false},

	{DocumentLocationURL, "dl", false},
	{DocumentHostName, "dh", false},
	{DocumentPath, "dp", false},
	{DocumentTitle, "dt", false},
	{ScreenName, "cd", false},
	{LinkID, "linkid", false},

	{ApplicationName, "an", false},
	{ApplicationID, "aid", false},
	{ApplicationVersion, "av", false},
	{ApplicationInstallerID, "aiid", false},

	{EventCategory, "ec", false},
	{EventAction, "ea", false},
	{EventLabel, "el", false},
	{EventValue, "ev", false},

	{TransactionID, "ti", false},
	{Affiliation, "ta", false},
	{Revenue, "tr", true},
	{Shipping, "ts", true},
	{Tax, "tt", true},
	{ItemName, "in", false},
	{ItemPrice, "ip", true},
	{ItemQuantity, "iq", false},
	{ItemCode, "ic", false},
	{ItemCategory, "iv", false},

	{CouponCode, "tcc", false},
	{ProductActionList, "pal", false},
	{CheckoutStep, "cos", false},
	{CheckoutStepOption, "col", false},
	{ProductAction, "pa", false},
	{PromotionAction, "promoa", false},

	{SocialNetwork, "sn", false},
	{SocialAction, "sa", false},
	{SocialActionTarget, "st", false},

	{UserTimingCategory, "utc", false},
	{UserTimingVariableName, "utv", false},
	{UserTimingTime, "utt", false},
	{UserTimingLabel, "utl", false},
	{PageLoadTime, "plt", false},
	{DNSTime, "dns", false},
	{PageDownloadTime, "pdt", false},
	{RedirectResponseTime, "rrt", false},
	{TCPConnectTime, "tcp", false},
	{ServerResponseTime, "srt", false},
	{DOMInteractiveTime, "dit", false},
	{ContentLoadTime, "clt", false},

	{ExceptionDescription, "exd", false},
	{IsExceptionFatal, "exf", false},
	{ExperimentID, "xid", false},
	{ExperimentVariant, "xvar", false},
}

// productSubFields is shared by products and impressions; impressions drop
// the fields that only make sense once a product is in a cart.
var productSubFields = []SubField{
	{Name: "id", Suffix: "id", Aliases: []string{"sku"}},
	{Name: "name", Suffix: "nm"},
	{Name: "brand", Suffix: "br"},
	{Name: "category", Suffix: "ca"},
	{Name: "variant", Suffix: "va"},
	{Name: "price", Suffix: "pr", Monetary: true},
	{Name: "quantity", Suffix: "qt"},
	{Name: "coupon_code", Suffix: "cc"},
	{Name: "position", Suffix: "ps"},
}

var compoundCatalog = []CompoundSpec{
	{
		Kind:          Product,
		Base:          "pr",
		SubFields:     productSubFields,
		CustomIndexed: true,
	},
	{
		Kind: ProductImpression,
		Base: "il%dpi",
		SubFields: []SubField{
			productSubFields[0],
			productSubFields[1],
			productSubFields[2],
			productSubFields[3],
			productSubFields[4],
			productSubFields[5],
			productSubFields[8],
		},
		CustomIndexed: true,
		ListField:     "list",
	},
	{
		Kind: Promotion,
		Base: "promo",
		SubFields: []SubField{
			{Name: "id", Suffix: "id"},
			{Name: "name", Suffix: "nm"},
			{Name: "creative", Suffix: "cr"},
			{Name: "position", Suffix: "ps"},
		},
	},
}

var hitTypeCatalog = []string{
	HitTypePageview,
	HitTypeScreenview,
	HitTypeEvent,
	HitTypeTransaction,
	HitTypeItem,
	HitTypeSocial,
	HitTypeException,
	HitTypeTiming,
}

var productActionCatalog = []string{
	ProductActionDetail,
	ProductActionClick,
	ProductActionAdd,
	ProductActionRemove,
	ProductActionCheckout,
	ProductActionCheckoutOption,
	ProductActionPurchase,
	ProductActionRefund,
}
