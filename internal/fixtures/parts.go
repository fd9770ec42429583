// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fixtures

import (
	"fmt"
	"strings"
	"time"
)

const (
	xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`

	nsA   = `http://schemas.openxmlformats.org/drawingml/2006/main`
	nsR   = `http://schemas.openxmlformats.org/officeDocument/2006/relationships`
	nsP   = `http://schemas.openxmlformats.org/presentationml/2006/main`
	nsRel = `http://schemas.openxmlformats.org/package/2006/relationships`

	relBase = `http://schemas.openxmlformats.org/officeDocument/2006/relationships/`

	pmlNS = `xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `"`

	// 4:3 slide in EMU.
	slideCX = 9144000
	slideCY = 6858000
)

const contentTypesXML = xmlHeader +
	`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>` +
	`<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>` +
	`<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>` +
	`<Override PartName="/ppt/slideLayouts/slideLayout2.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>` +
	`<Override PartName="/ppt/slides/slide1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>` +
	`<Override PartName="/ppt/slides/slide2.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>` +
	`<Override PartName="/ppt/theme/theme1.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/>` +
	`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>` +
	`<Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/>` +
	`</Types>`

const rootRelsXML = xmlHeader +
	`<Relationships xmlns="` + nsRel + `">` +
	`<Relationship Id="rId1" Type="` + relBase + `officeDocument" Target="ppt/presentation.xml"/>` +
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>` +
	`<Relationship Id="rId3" Type="` + relBase + `extended-properties" Target="docProps/app.xml"/>` +
	`</Relationships>`

const appPropsXML = xmlHeader +
	`<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties">` +
	`<Application>pptpdf</Application><Slides>2</Slides>` +
	`</Properties>`

func corePropsXML(title string, now time.Time) string {
	ts := now.Format(time.RFC3339)
	return xmlHeader +
		`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` +
		`<dc:title>` + escape(title) + `</dc:title>` +
		`<dc:creator>pptpdf</dc:creator>` +
		`<dcterms:created xsi:type="dcterms:W3CDTF">` + ts + `</dcterms:created>` +
		`<dcterms:modified xsi:type="dcterms:W3CDTF">` + ts + `</dcterms:modified>` +
		`</cp:coreProperties>`
}

var presentationXML = xmlHeader +
	`<p:presentation ` + pmlNS + ` saveSubsetFonts="1">` +
	`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>` +
	`<p:sldIdLst><p:sldId id="256" r:id="rId3"/><p:sldId id="257" r:id="rId4"/></p:sldIdLst>` +
	fmt.Sprintf(`<p:sldSz cx="%d" cy="%d" type="screen4x3"/>`, slideCX, slideCY) +
	`<p:notesSz cx="6858000" cy="9144000"/>` +
	`</p:presentation>`

const presentationRelsXML = xmlHeader +
	`<Relationships xmlns="` + nsRel + `">` +
	`<Relationship Id="rId1" Type="` + relBase + `slideMaster" Target="slideMasters/slideMaster1.xml"/>` +
	`<Relationship Id="rId2" Type="` + relBase + `theme" Target="theme/theme1.xml"/>` +
	`<Relationship Id="rId3" Type="` + relBase + `slide" Target="slides/slide1.xml"/>` +
	`<Relationship Id="rId4" Type="` + relBase + `slide" Target="slides/slide2.xml"/>` +
	`</Relationships>`

const emptyTree = `<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`

const slideMasterXML = xmlHeader +
	`<p:sldMaster ` + pmlNS + `>` +
	`<p:cSld><p:bg><p:bgRef idx="1001"><a:schemeClr val="bg1"/></p:bgRef></p:bg>` +
	`<p:spTree>` + emptyTree + `</p:spTree></p:cSld>` +
	`<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>` +
	`<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/><p:sldLayoutId id="2147483650" r:id="rId2"/></p:sldLayoutIdLst>` +
	`</p:sldMaster>`

const slideMasterRelsXML = xmlHeader +
	`<Relationships xmlns="` + nsRel + `">` +
	`<Relationship Id="rId1" Type="` + relBase + `slideLayout" Target="../slideLayouts/slideLayout1.xml"/>` +
	`<Relationship Id="rId2" Type="` + relBase + `slideLayout" Target="../slideLayouts/slideLayout2.xml"/>` +
	`<Relationship Id="rId3" Type="` + relBase + `theme" Target="../theme/theme1.xml"/>` +
	`</Relationships>`

func slideLayoutXML(kind, name string) string {
	return xmlHeader +
		`<p:sldLayout ` + pmlNS + ` type="` + kind + `" preserve="1">` +
		`<p:cSld name="` + name + `"><p:spTree>` + emptyTree + `</p:spTree></p:cSld>` +
		`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr>` +
		`</p:sldLayout>`
}

const slideLayoutRelsXML = xmlHeader +
	`<Relationships xmlns="` + nsRel + `">` +
	`<Relationship Id="rId1" Type="` + relBase + `slideMaster" Target="../slideMasters/slideMaster1.xml"/>` +
	`</Relationships>`

// slideRelsXML links slide n to layout n: slide 1 is the title layout,
// slide 2 title-and-content.
func slideRelsXML(n int) string {
	return xmlHeader +
		`<Relationships xmlns="` + nsRel + `">` +
		fmt.Sprintf(`<Relationship Id="rId1" Type="`+relBase+`slideLayout" Target="../slideLayouts/slideLayout%d.xml"/>`, n) +
		`</Relationships>`
}

type box struct{ x, y, cx, cy int }

func shapeXML(id int, name, placeholder string, b box, paragraphs string) string {
	return `<p:sp><p:nvSpPr>` +
		fmt.Sprintf(`<p:cNvPr id="%d" name="%s"/>`, id, name) +
		`<p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr>` +
		`<p:nvPr>` + placeholder + `</p:nvPr></p:nvSpPr>` +
		fmt.Sprintf(`<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm></p:spPr>`, b.x, b.y, b.cx, b.cy) +
		`<p:txBody><a:bodyPr/><a:lstStyle/>` + paragraphs + `</p:txBody></p:sp>`
}

func paragraphXML(level int, text, size string) string {
	var b strings.Builder
	b.WriteString(`<a:p>`)
	if level > 0 {
		fmt.Fprintf(&b, `<a:pPr lvl="%d"/>`, level)
	}
	b.WriteString(`<a:r><a:rPr lang="en-US" sz="` + size + `" dirty="0"/><a:t>` + escape(text) + `</a:t></a:r></a:p>`)
	return b.String()
}

func slideXML(shapes ...string) string {
	return xmlHeader +
		`<p:sld ` + pmlNS + `>` +
		`<p:cSld><p:spTree>` + emptyTree + strings.Join(shapes, "") + `</p:spTree></p:cSld>` +
		`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr>` +
		`</p:sld>`
}

func titleSlideXML(title, subtitle string) string {
	return slideXML(
		shapeXML(2, "Title 1", `<p:ph type="ctrTitle"/>`,
			box{685800, 2130425, 7772400, 1470025}, paragraphXML(0, title, "4400")),
		shapeXML(3, "Subtitle 2", `<p:ph type="subTitle" idx="1"/>`,
			box{1371600, 3886200, 6400800, 1752600}, paragraphXML(0, subtitle, "2400")),
	)
}

func bulletSlideXML(title string, bullets []string) string {
	var body strings.Builder
	for level, text := range bullets {
		body.WriteString(paragraphXML(level, text, "2800"))
	}
	return slideXML(
		shapeXML(2, "Title 1", `<p:ph type="title"/>`,
			box{457200, 274638, 8229600, 1143000}, paragraphXML(0, title, "4000")),
		shapeXML(3, "Content Placeholder 2", `<p:ph idx="1"/>`,
			box{457200, 1600200, 8229600, 4525963}, body.String()),
	)
}

const themeXML = xmlHeader +
	`<a:theme xmlns:a="` + nsA + `" name="Office Theme"><a:themeElements>` +
	`<a:clrScheme name="Office">` +
	`<a:dk1><a:sysClr val="windowText" lastClr="000000"/></a:dk1>` +
	`<a:lt1><a:sysClr val="window" lastClr="FFFFFF"/></a:lt1>` +
	`<a:dk2><a:srgbClr val="1F497D"/></a:dk2>` +
	`<a:lt2><a:srgbClr val="EEECE1"/></a:lt2>` +
	`<a:accent1><a:srgbClr val="4F81BD"/></a:accent1>` +
	`<a:accent2><a:srgbClr val="C0504D"/></a:accent2>` +
	`<a:accent3><a:srgbClr val="9BBB59"/></a:accent3>` +
	`<a:accent4><a:srgbClr val="8064A2"/></a:accent4>` +
	`<a:accent5><a:srgbClr val="4BACC6"/></a:accent5>` +
	`<a:accent6><a:srgbClr val="F79646"/></a:accent6>` +
	`<a:hlink><a:srgbClr val="0000FF"/></a:hlink>` +
	`<a:folHlink><a:srgbClr val="800080"/></a:folHlink>` +
	`</a:clrScheme>` +
	`<a:fontScheme name="Office">` +
	`<a:majorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont>` +
	`<a:minorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont>` +
	`</a:fontScheme>` +
	`<a:fmtScheme name="Office">` +
	`<a:fillStyleLst>` + solidPhClr + solidPhClr + solidPhClr + `</a:fillStyleLst>` +
	`<a:lnStyleLst>` + lineStyle + lineStyle + lineStyle + `</a:lnStyleLst>` +
	`<a:effectStyleLst>` + effectStyle + effectStyle + effectStyle + `</a:effectStyleLst>` +
	`<a:bgFillStyleLst>` + solidPhClr + solidPhClr + solidPhClr + `</a:bgFillStyleLst>` +
	`</a:fmtScheme>` +
	`</a:themeElements></a:theme>`

const (
	solidPhClr  = `<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>`
	lineStyle   = `<a:ln w="9525">` + solidPhClr + `</a:ln>`
	effectStyle = `<a:effectStyle><a:effectLst/></a:effectStyle>`
)
